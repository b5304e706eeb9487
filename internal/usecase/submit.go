package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SolarpunkList/internal/identity"
	"SolarpunkList/internal/images"
	"SolarpunkList/internal/notify"
	"SolarpunkList/internal/ports"
	"SolarpunkList/internal/profile"
)

const (
	pageContentMaxChars = 5000
	minPageContent      = 50
	pageFetchTimeout    = 10 * time.Second
)

var privateNetExpr = regexp.MustCompile(`^(10\.|172\.(1[6-9]|2\d|3[01])\.|192\.168\.)`)

var blockedHostnames = map[string]struct{}{
	"localhost":                {},
	"127.0.0.1":                {},
	"0.0.0.0":                  {},
	"::1":                      {},
	"metadata.google.internal": {},
	"169.254.169.254":          {},
}

// SubmissionResult identifies the community created from a submitted URL.
type SubmissionResult struct {
	Slug string
	Name string
}

// Submission is the synchronous single-URL research path. Unlike the
// batch pipelines it propagates user-facing errors to its caller.
type Submission struct {
	search   ports.SearchService
	engine   *profile.Engine
	repo     ports.CommunityRepository
	imageEng *images.Engine
	notifier *notify.Notifier
	clock    ports.Clock
	client   *http.Client
	logger   *slog.Logger
}

// SubmissionDeps wires the driven adapters into the submission path.
type SubmissionDeps struct {
	Search   ports.SearchService
	Engine   *profile.Engine
	Repo     ports.CommunityRepository
	Images   *images.Engine
	Notifier *notify.Notifier
	Clock    ports.Clock
	Client   *http.Client
	Logger   *slog.Logger
}

// NewSubmission constructs the submission use case.
func NewSubmission(deps SubmissionDeps) *Submission {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	client := deps.Client
	if client == nil {
		client = &http.Client{Timeout: pageFetchTimeout}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Submission{
		search:   deps.Search,
		engine:   deps.Engine,
		repo:     deps.Repo,
		imageEng: deps.Images,
		notifier: deps.Notifier,
		clock:    clock,
		client:   client,
		logger:   logger,
	}
}

// ValidateSubmissionURL rejects non-http(s) schemes and addresses that
// would let a submission probe internal infrastructure.
func ValidateSubmissionURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("please enter a valid URL (e.g. https://example.com)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("URL must start with http:// or https://")
	}

	hostname := strings.ToLower(parsed.Hostname())
	if _, blocked := blockedHostnames[hostname]; blocked ||
		strings.HasSuffix(hostname, ".local") ||
		strings.HasSuffix(hostname, ".internal") ||
		privateNetExpr.MatchString(hostname) {
		return nil, fmt.Errorf("this URL cannot be used, please provide a public website URL")
	}

	return parsed, nil
}

// Run researches the community behind rawURL and adds it to the directory.
func (s *Submission) Run(ctx context.Context, rawURL string) (SubmissionResult, error) {
	parsed, err := ValidateSubmissionURL(rawURL)
	if err != nil {
		return SubmissionResult{}, err
	}
	pageURL := parsed.String()

	title, content := s.fetchPageContent(ctx, pageURL)
	if len(content) < minPageContent {
		return SubmissionResult{}, ErrInsufficientEvidence
	}

	classification, err := s.engine.ClassifyPage(ctx,
		fmt.Sprintf("Title: %s\nURL: %s\nContent: %s", title, pageURL, content))
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("failed to analyze the URL: %w", err)
	}
	if !classification.IsCommunity {
		if classification.Reason != "" {
			return SubmissionResult{}, fmt.Errorf("%w: %s", ErrNotACommunity, classification.Reason)
		}
		return SubmissionResult{}, ErrNotACommunity
	}

	knownSlugs, err := s.repo.ListKnownSlugs(ctx)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("list known slugs: %w", err)
	}
	knownNames, err := s.repo.ListKnownNames(ctx)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("list known names: %w", err)
	}
	dedup := identity.NewDedupIndex(knownSlugs, knownNames)

	if dedup.IsDuplicate(classification.Name) {
		return SubmissionResult{}, fmt.Errorf("%w: %q", ErrDuplicateCommunity, classification.Name)
	}

	p, err := researchCommunity(ctx, s.search, s.engine, classification.Name)
	if err != nil {
		return SubmissionResult{}, err
	}
	if p == nil {
		return SubmissionResult{}, fmt.Errorf("%w: could not generate a profile for this community", ErrInsufficientEvidence)
	}

	// Synthesis may settle on a different official name.
	if dedup.IsDuplicate(p.Name) {
		return SubmissionResult{}, fmt.Errorf("%w: %q", ErrDuplicateCommunity, p.Name)
	}

	websiteURL := p.WebsiteURL
	if websiteURL == "" {
		websiteURL = pageURL
	}

	created, err := persistCommunity(ctx, s.repo, s.clock, p, websiteURL, 1)
	if err != nil {
		return SubmissionResult{}, err
	}

	if s.imageEng != nil {
		if _, imgErr := s.imageEng.FetchAndStore(ctx, created.ID, created.Name, websiteURL); imgErr != nil {
			s.logger.Error("image fetch failed", "name", created.Name, "error", imgErr)
		}
	}

	s.logger.Info("community submitted", "name", created.Name, "slug", created.Slug, "score", created.SolarpunkScore)

	if s.notifier != nil {
		s.notifier.AnnounceAsync(ctx, created)
	}

	return SubmissionResult{Slug: created.Slug, Name: created.Name}, nil
}

// fetchPageContent tries the search index's contents endpoint first, then
// falls back to fetching the page directly and stripping markup.
func (s *Submission) fetchPageContent(ctx context.Context, pageURL string) (title, content string) {
	if s.search != nil {
		t, text, err := s.search.Contents(ctx, pageURL, pageContentMaxChars)
		if err == nil && len(text) >= minPageContent {
			return t, text
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", ""
	}
	req.Header.Set("User-Agent", "SolarpunkListBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if len(text) > pageContentMaxChars {
		text = text[:pageContentMaxChars]
	}
	return title, text
}
