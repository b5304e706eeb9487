package images

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
)

// imageHost serves a verifiable image at every path.
func imageHost(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "40000")
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchAndStoreFirstBatchDesignatesHero(t *testing.T) {
	t.Parallel()

	host := imageHost(t)
	search := &fakeSearch{results: []ports.SearchResult{{
		Title:      "Earthaven photos",
		URL:        "https://earthaven.example/gallery",
		Image:      host.URL + "/hero.jpg",
		ImageLinks: []string{host.URL + "/second.jpg", host.URL + "/third.jpg"},
	}}}
	repo := newFakeRepo()

	e := NewEngine(search, repo, host.Client(), nil)
	count, err := e.FetchAndStore(context.Background(), "c-1", "Earthaven", "https://earthaven.example")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if count != 3 {
		t.Fatalf("stored = %d, want 3", count)
	}

	stored := repo.images["c-1"]
	if !stored[0].IsHero {
		t.Fatal("first verified image of the first batch is the hero")
	}
	for i, img := range stored {
		if img.SortOrder != i {
			t.Fatalf("sort order %d at index %d", img.SortOrder, i)
		}
		if i > 0 && img.IsHero {
			t.Fatal("only one hero per batch")
		}
		if img.AltText == "" {
			t.Fatal("alt text must default")
		}
	}

	updates := repo.updates["c-1"]
	if len(updates) != 1 || updates[0].HeroImageURL == nil || *updates[0].HeroImageURL != host.URL+"/hero.jpg" {
		t.Fatalf("hero update = %+v", updates)
	}

	// Site-scoped search must run first.
	if len(search.queries) == 0 || !strings.Contains(search.queries[0], "Earthaven community") {
		t.Fatalf("queries = %v", search.queries)
	}
}

func TestFetchAndStoreSecondBatchContinuesSortOrder(t *testing.T) {
	t.Parallel()

	host := imageHost(t)
	search := &fakeSearch{results: []ports.SearchResult{{
		URL:   "https://x.example",
		Image: host.URL + "/new.jpg",
	}}}
	repo := newFakeRepo()
	repo.images["c-1"] = []domain.Image{
		{ImageURL: host.URL + "/old-hero.jpg", IsHero: true, SortOrder: 0},
		{ImageURL: host.URL + "/old-2.jpg", SortOrder: 1},
	}

	e := NewEngine(search, repo, host.Client(), nil)
	count, err := e.FetchAndStore(context.Background(), "c-1", "Earthaven", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored = %d, want 1", count)
	}

	stored := repo.images["c-1"]
	added := stored[len(stored)-1]
	if added.IsHero {
		t.Fatal("later batches never re-designate the hero")
	}
	if added.SortOrder != 2 {
		t.Fatalf("sort order = %d, want continuation at 2", added.SortOrder)
	}
	if len(repo.updates["c-1"]) != 0 {
		t.Fatal("no hero update on later batches")
	}
}

func TestFetchAndStoreSkipsAlreadyStoredURLs(t *testing.T) {
	t.Parallel()

	host := imageHost(t)
	known := host.URL + "/known.jpg"
	search := &fakeSearch{results: []ports.SearchResult{{
		URL:   "https://x.example",
		Image: known,
	}}}
	repo := newFakeRepo()
	repo.images["c-1"] = []domain.Image{{ImageURL: known, IsHero: true, SortOrder: 0}}

	e := NewEngine(search, repo, host.Client(), nil)
	count, err := e.FetchAndStore(context.Background(), "c-1", "Earthaven", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if count != 0 {
		t.Fatalf("stored = %d, already-known URLs must be skipped", count)
	}
}

func TestFetchAndStoreCapsAcceptedImages(t *testing.T) {
	t.Parallel()

	host := imageHost(t)
	links := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		links = append(links, fmt.Sprintf("%s/photo-%02d.jpg", host.URL, i))
	}
	search := &fakeSearch{results: []ports.SearchResult{{
		URL:        "https://x.example",
		ImageLinks: links,
	}}}
	repo := newFakeRepo()

	e := NewEngine(search, repo, host.Client(), nil)
	count, err := e.FetchAndStore(context.Background(), "c-1", "Earthaven", "https://x.example")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if count != maxAccepted {
		t.Fatalf("stored = %d, want cap of %d", count, maxAccepted)
	}
}

func TestBackfillAllSkipsWellStockedCommunities(t *testing.T) {
	t.Parallel()

	host := imageHost(t)
	search := &fakeSearch{results: []ports.SearchResult{{
		URL:   "https://x.example",
		Image: host.URL + "/extra.jpg",
	}}}
	repo := newFakeRepo()
	repo.published = []domain.Community{
		{ID: "poor", Name: "Poor Village"},
		{ID: "rich", Name: "Rich Village"},
	}
	repo.images["rich"] = []domain.Image{
		{ImageURL: "https://a.example/1.jpg"}, {ImageURL: "https://a.example/2.jpg"}, {ImageURL: "https://a.example/3.jpg"},
	}

	e := NewEngine(search, repo, host.Client(), nil)
	report, err := e.BackfillAll(context.Background())
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}

	if report.CommunitiesProcessed != 1 {
		t.Fatalf("processed = %d, want only the under-stocked community", report.CommunitiesProcessed)
	}
	if len(repo.images["poor"]) == 0 {
		t.Fatal("under-stocked community should gain images")
	}
	if len(repo.images["rich"]) != 3 {
		t.Fatal("well-stocked community must be untouched")
	}
}
