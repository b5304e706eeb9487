package ports

import (
	"context"
	"time"

	"SolarpunkList/internal/domain"
)

// SearchResult is one ranked document from the semantic search index.
type SearchResult struct {
	Title      string
	URL        string
	Text       string
	Image      string
	ImageLinks []string
}

// SearchOptions tune a single search call.
type SearchOptions struct {
	NumResults     int
	MaxCharacters  int
	WantImages     bool
	IncludeDomains []string
}

// SearchService issues semantic search queries against an external index.
// Implementations must tolerate missing credentials by returning an empty
// result set rather than an error.
type SearchService interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
	Contents(ctx context.Context, url string, maxCharacters int) (title, text string, err error)
}

// LanguageModel produces a free-text completion for a prompt. Callers
// extract structured JSON from the text themselves.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// CommunityRepository persists communities and their child collections.
type CommunityRepository interface {
	CreateCommunity(ctx context.Context, c domain.Community) (domain.Community, error)
	UpdateCommunity(ctx context.Context, id string, patch domain.CommunityUpdate) error
	GetCommunityByID(ctx context.Context, id string) (*domain.Community, error)
	GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error)
	ListPublished(ctx context.Context) ([]domain.Community, error)
	ListKnownSlugs(ctx context.Context) ([]string, error)
	ListKnownNames(ctx context.Context) ([]string, error)
	CountCommunities(ctx context.Context) (int, error)

	AddTags(ctx context.Context, communityID string, tags []string) error
	AddLinks(ctx context.Context, communityID string, links []domain.Link) error
	AddImages(ctx context.Context, communityID string, images []domain.Image) error
	ImagesByCommunityID(ctx context.Context, communityID string) ([]domain.Image, error)

	WriteDiscoveryRun(ctx context.Context, run domain.DiscoveryRun) error
	WriteRefreshRun(ctx context.Context, run domain.RefreshRun) error

	AddSubscriber(ctx context.Context, email string) (domain.Subscriber, error)
	ListSubscriberEmails(ctx context.Context) ([]string, error)

	TrackVisit(ctx context.Context, path string) error
	VisitStats(ctx context.Context) (total int, monthlyAverage int, err error)
}

// SendOutcome reports the result of one recipient's delivery attempt.
type SendOutcome struct {
	Recipient string
	Err       error
}

// EmailSender dispatches one announcement to a batch of recipients,
// returning a per-recipient outcome. A recipient failure never fails
// the batch.
type EmailSender interface {
	SendBatch(ctx context.Context, recipients []string, subject, html, text string) []SendOutcome
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Clock abstracts time for staleness decisions in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
