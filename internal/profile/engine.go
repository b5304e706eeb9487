package profile

import (
	"context"
	"encoding/json"
	"log/slog"

	"SolarpunkList/internal/ports"
)

const (
	extractionMaxTokens = 4096
	synthesisMaxTokens  = 8192
	diffMaxTokens       = 4096
	classifyMaxTokens   = 1024
)

// Engine turns research context into structured community documents via
// the language-model port. Every method degrades to a nil result when the
// model is unreachable or its output carries no extractable JSON; callers
// treat nil as "skip".
type Engine struct {
	llm    ports.LanguageModel
	logger *slog.Logger
}

// NewEngine wires the model port.
func NewEngine(llm ports.LanguageModel, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{llm: llm, logger: logger}
}

// ExtractCandidates asks the model for community names mentioned in the
// search results, excluding names already known to the directory.
func (e *Engine) ExtractCandidates(ctx context.Context, results []ports.SearchResult, existingNames []string) []Candidate {
	if e.llm == nil || len(results) == 0 {
		return nil
	}

	prompt := extractionPrompt(BuildResearchContext(results, true), existingNames)
	text, err := e.llm.Complete(ctx, prompt, extractionMaxTokens)
	if err != nil {
		e.logger.Error("candidate extraction failed", "error", err)
		return nil
	}

	raw := ExtractJSONArray(text)
	if raw == "" {
		return nil
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		e.logger.Warn("candidate extraction returned malformed JSON", "error", err)
		return nil
	}
	return candidates
}

// Synthesize generates a full profile for name from researchContext.
// Returns nil when the model cannot produce a document that passes the
// schema check; partial documents are never surfaced.
func (e *Engine) Synthesize(ctx context.Context, name, researchContext string) *Profile {
	if e.llm == nil {
		return nil
	}

	text, err := e.llm.Complete(ctx, synthesisPrompt(name, researchContext), synthesisMaxTokens)
	if err != nil {
		e.logger.Error("profile synthesis failed", "community", name, "error", err)
		return nil
	}

	raw := ExtractJSONObject(text)
	if raw == "" {
		return nil
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		e.logger.Warn("profile response malformed", "community", name, "error", err)
		return nil
	}
	if err := p.Validate(); err != nil {
		e.logger.Warn("profile rejected by schema check", "community", name, "error", err)
		return nil
	}
	return &p
}

// Diff asks the model what changed for an existing community given fresh
// research. Nil means the model gave no usable answer.
func (e *Engine) Diff(ctx context.Context, existingOverview, freshContext string) *RefreshDiff {
	if e.llm == nil {
		return nil
	}

	text, err := e.llm.Complete(ctx, diffPrompt(existingOverview, freshContext), diffMaxTokens)
	if err != nil {
		e.logger.Error("refresh diff failed", "error", err)
		return nil
	}

	raw := ExtractJSONObject(text)
	if raw == "" {
		return nil
	}

	var d RefreshDiff
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		e.logger.Warn("refresh diff malformed", "error", err)
		return nil
	}
	return &d
}

// PageClassification is the model's verdict on a submitted URL.
type PageClassification struct {
	Name        string `json:"name"`
	IsCommunity bool   `json:"is_community"`
	Reason      string `json:"reason"`
}

// ClassifyPage decides whether a fetched page describes a community at
// all. Unlike the batch methods this surfaces errors, because the single
// submission path reports them to its caller.
func (e *Engine) ClassifyPage(ctx context.Context, pageContext string) (*PageClassification, error) {
	text, err := e.llm.Complete(ctx, classifyPrompt(pageContext), classifyMaxTokens)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSONObject(text)
	if raw == "" {
		return nil, errNoJSON
	}

	var c PageClassification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	return &c, nil
}
