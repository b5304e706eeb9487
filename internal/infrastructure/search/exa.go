package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"SolarpunkList/internal/config"
	"SolarpunkList/internal/ports"
)

const (
	defaultBaseURL = "https://api.exa.ai"
	searchTimeout  = 15 * time.Second
	imageLinksWant = 5
)

// ExaClient implements ports.SearchService against the Exa semantic
// search API. A missing API key degrades every call to an empty result
// set so pipelines keep running with reduced recall.
type ExaClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.SearchService = (*ExaClient)(nil)

// NewExaClient builds a client from configuration.
func NewExaClient(cfg config.SearchConfig, logger *slog.Logger) *ExaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExaClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: searchTimeout},
		logger:     logger,
	}
}

type exaContents struct {
	Text   any             `json:"text,omitempty"`
	Extras *exaExtrasBlock `json:"extras,omitempty"`
}

type exaExtrasBlock struct {
	ImageLinks int `json:"imageLinks"`
}

type exaTextOpts struct {
	MaxCharacters int `json:"maxCharacters"`
}

type exaResult struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Text   string `json:"text"`
	Image  string `json:"image"`
	Extras struct {
		ImageLinks []string `json:"imageLinks"`
	} `json:"extras"`
}

type exaResponse struct {
	Results []exaResult `json:"results"`
}

// Search issues one neural search query.
func (c *ExaClient) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]ports.SearchResult, error) {
	if c.apiKey == "" {
		c.logger.Warn("search API key not set, skipping search")
		return nil, nil
	}

	contents := exaContents{}
	if opts.WantImages {
		contents.Text = false
		contents.Extras = &exaExtrasBlock{ImageLinks: imageLinksWant}
	} else {
		maxChars := opts.MaxCharacters
		if maxChars <= 0 {
			maxChars = 3000
		}
		contents.Text = exaTextOpts{MaxCharacters: maxChars}
	}

	body := map[string]any{
		"query":      query,
		"type":       "neural",
		"numResults": opts.NumResults,
		"contents":   contents,
	}
	if len(opts.IncludeDomains) > 0 {
		body["includeDomains"] = opts.IncludeDomains
	}

	var decoded exaResponse
	if err := c.post(ctx, "/search", body, &decoded); err != nil {
		c.logger.Error("search failed", "query", query, "error", err)
		return nil, nil
	}

	results := make([]ports.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, ports.SearchResult{
			Title:      r.Title,
			URL:        r.URL,
			Text:       r.Text,
			Image:      r.Image,
			ImageLinks: r.Extras.ImageLinks,
		})
	}
	return results, nil
}

// Contents fetches the extracted text of a single page.
func (c *ExaClient) Contents(ctx context.Context, url string, maxCharacters int) (string, string, error) {
	if c.apiKey == "" {
		return "", "", nil
	}

	body := map[string]any{
		"urls": []string{url},
		"text": exaTextOpts{MaxCharacters: maxCharacters},
	}

	var decoded exaResponse
	if err := c.post(ctx, "/contents", body, &decoded); err != nil {
		return "", "", err
	}
	if len(decoded.Results) == 0 {
		return "", "", nil
	}
	return decoded.Results[0].Title, decoded.Results[0].Text, nil
}

func (c *ExaClient) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("search API error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
