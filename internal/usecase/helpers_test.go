package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
)

// fixedClock pins time for staleness decisions.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// scriptedLLM pops one canned response per call.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.responses) == 0 {
		return "", fmt.Errorf("scripted LLM exhausted on call %d", s.calls)
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}

// stubSearch returns canned results keyed by query substring, or the
// default set.
type stubSearch struct {
	mu       sync.Mutex
	byQuery  map[string][]ports.SearchResult
	fallback []ports.SearchResult
	err      error
	queries  []string
	contents struct {
		title string
		text  string
		err   error
	}
}

func (s *stubSearch) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]ports.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	for key, results := range s.byQuery {
		if strings.Contains(query, key) {
			return results, nil
		}
	}
	return s.fallback, nil
}

func (s *stubSearch) Contents(ctx context.Context, url string, maxCharacters int) (string, string, error) {
	return s.contents.title, s.contents.text, s.contents.err
}

// memRepo is an in-memory ports.CommunityRepository.
type memRepo struct {
	mu            sync.Mutex
	slugs         []string
	names         []string
	published     []domain.Community
	created       []domain.Community
	updates       map[string][]domain.CommunityUpdate
	tags          map[string][]string
	links         map[string][]domain.Link
	images        map[string][]domain.Image
	discoveryRuns []domain.DiscoveryRun
	refreshRuns   []domain.RefreshRun
	subscribers   []string
}

func newMemRepo() *memRepo {
	return &memRepo{
		updates: make(map[string][]domain.CommunityUpdate),
		tags:    make(map[string][]string),
		links:   make(map[string][]domain.Link),
		images:  make(map[string][]domain.Image),
	}
}

func (m *memRepo) CreateCommunity(ctx context.Context, c domain.Community) (domain.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = fmt.Sprintf("c-%d", len(m.created)+1)
	m.created = append(m.created, c)
	return c, nil
}

func (m *memRepo) UpdateCommunity(ctx context.Context, id string, patch domain.CommunityUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates[id] = append(m.updates[id], patch)
	return nil
}

func (m *memRepo) GetCommunityByID(ctx context.Context, id string) (*domain.Community, error) {
	return nil, nil
}

func (m *memRepo) GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	return nil, nil
}

func (m *memRepo) ListPublished(ctx context.Context) ([]domain.Community, error) {
	return m.published, nil
}

func (m *memRepo) ListKnownSlugs(ctx context.Context) ([]string, error) { return m.slugs, nil }
func (m *memRepo) ListKnownNames(ctx context.Context) ([]string, error) { return m.names, nil }

func (m *memRepo) CountCommunities(ctx context.Context) (int, error) {
	return len(m.created), nil
}

func (m *memRepo) AddTags(ctx context.Context, communityID string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[communityID] = append(m.tags[communityID], tags...)
	return nil
}

func (m *memRepo) AddLinks(ctx context.Context, communityID string, links []domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[communityID] = append(m.links[communityID], links...)
	return nil
}

func (m *memRepo) AddImages(ctx context.Context, communityID string, imgs []domain.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[communityID] = append(m.images[communityID], imgs...)
	return nil
}

func (m *memRepo) ImagesByCommunityID(ctx context.Context, communityID string) ([]domain.Image, error) {
	return m.images[communityID], nil
}

func (m *memRepo) WriteDiscoveryRun(ctx context.Context, run domain.DiscoveryRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discoveryRuns = append(m.discoveryRuns, run)
	return nil
}

func (m *memRepo) WriteRefreshRun(ctx context.Context, run domain.RefreshRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshRuns = append(m.refreshRuns, run)
	return nil
}

func (m *memRepo) AddSubscriber(ctx context.Context, email string) (domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, email)
	return domain.Subscriber{ID: email, Email: email}, nil
}

func (m *memRepo) ListSubscriberEmails(ctx context.Context) ([]string, error) {
	return m.subscribers, nil
}

func (m *memRepo) TrackVisit(ctx context.Context, path string) error { return nil }

func (m *memRepo) VisitStats(ctx context.Context) (int, int, error) { return 0, 0, nil }

var _ ports.CommunityRepository = (*memRepo)(nil)

// validProfileJSON is a synthesis response that passes the schema check.
func validProfileJSON(name string) string {
	return fmt.Sprintf(`{"name":%q,"tagline":"A community","overview":"An overview.",
"stage":"established","website_url":"https://example.org",
"scores":{"energy":{"score":8},"land":{"score":7},"tech":{"score":5},
"governance":{"score":6},"community":{"score":9},"circularity":{"score":4}},
"tags":["permaculture","off-grid"],"ai_confidence":0.8}`, name)
}

// richResults carries enough body text to clear the research-context floor.
func richResults(url string) []ports.SearchResult {
	return []ports.SearchResult{{
		Title: "About the community",
		URL:   url,
		Text:  strings.Repeat("An intentional community with solar power and shared land. ", 5),
	}}
}
