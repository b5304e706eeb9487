package images

import (
	"context"
	"fmt"
	"sync"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
)

// fakeSearch returns a fixed result set for every query.
type fakeSearch struct {
	mu      sync.Mutex
	results []ports.SearchResult
	err     error
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]ports.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func (f *fakeSearch) Contents(ctx context.Context, url string, maxCharacters int) (string, string, error) {
	return "", "", nil
}

var _ ports.SearchService = (*fakeSearch)(nil)

// fakeRepo records image writes and hero updates.
type fakeRepo struct {
	mu        sync.Mutex
	published []domain.Community
	images    map[string][]domain.Image
	updates   map[string][]domain.CommunityUpdate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		images:  make(map[string][]domain.Image),
		updates: make(map[string][]domain.CommunityUpdate),
	}
}

func (f *fakeRepo) CreateCommunity(ctx context.Context, c domain.Community) (domain.Community, error) {
	return c, nil
}

func (f *fakeRepo) UpdateCommunity(ctx context.Context, id string, patch domain.CommunityUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = append(f.updates[id], patch)
	return nil
}

func (f *fakeRepo) GetCommunityByID(ctx context.Context, id string) (*domain.Community, error) {
	return nil, nil
}

func (f *fakeRepo) GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	return nil, nil
}

func (f *fakeRepo) ListPublished(ctx context.Context) ([]domain.Community, error) {
	return f.published, nil
}

func (f *fakeRepo) ListKnownSlugs(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeRepo) ListKnownNames(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeRepo) CountCommunities(ctx context.Context) (int, error)    { return 0, nil }

func (f *fakeRepo) AddTags(ctx context.Context, communityID string, tags []string) error { return nil }

func (f *fakeRepo) AddLinks(ctx context.Context, communityID string, links []domain.Link) error {
	return nil
}

func (f *fakeRepo) AddImages(ctx context.Context, communityID string, imgs []domain.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, img := range imgs {
		img.ID = fmt.Sprintf("img-%d", len(f.images[communityID])+i+1)
		f.images[communityID] = append(f.images[communityID], img)
	}
	return nil
}

func (f *fakeRepo) ImagesByCommunityID(ctx context.Context, communityID string) ([]domain.Image, error) {
	return f.images[communityID], nil
}

func (f *fakeRepo) WriteDiscoveryRun(ctx context.Context, run domain.DiscoveryRun) error { return nil }
func (f *fakeRepo) WriteRefreshRun(ctx context.Context, run domain.RefreshRun) error     { return nil }

func (f *fakeRepo) AddSubscriber(ctx context.Context, email string) (domain.Subscriber, error) {
	return domain.Subscriber{}, nil
}

func (f *fakeRepo) ListSubscriberEmails(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeRepo) TrackVisit(ctx context.Context, path string) error          { return nil }
func (f *fakeRepo) VisitStats(ctx context.Context) (int, int, error)           { return 0, 0, nil }

var _ ports.CommunityRepository = (*fakeRepo)(nil)
