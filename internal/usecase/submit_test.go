package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SolarpunkList/internal/ports"
	"SolarpunkList/internal/profile"
)

func TestValidateSubmissionURL(t *testing.T) {
	t.Parallel()

	valid := []string{
		"https://example.org",
		"http://community.example.org/about",
	}
	for _, raw := range valid {
		if _, err := ValidateSubmissionURL(raw); err != nil {
			t.Fatalf("ValidateSubmissionURL(%q) = %v, want nil", raw, err)
		}
	}

	invalid := []string{
		"not a url",
		"ftp://example.org",
		"javascript:alert(1)",
		"https://localhost/admin",
		"https://127.0.0.1:8080",
		"http://169.254.169.254/latest/meta-data",
		"https://metadata.google.internal/computeMetadata",
		"https://10.0.0.5/internal",
		"https://192.168.1.1",
		"https://172.16.0.1",
		"https://db.internal",
		"https://printer.local",
	}
	for _, raw := range invalid {
		if _, err := ValidateSubmissionURL(raw); err == nil {
			t.Fatalf("ValidateSubmissionURL(%q) should fail", raw)
		}
	}
}

func newTestSubmission(repo *memRepo, search *stubSearch, llm *scriptedLLM, client *http.Client) *Submission {
	return NewSubmission(SubmissionDeps{
		Search: search,
		Engine: profile.NewEngine(llm, nil),
		Repo:   repo,
		Clock:  fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Client: client,
	})
}

func TestSubmissionRejectsThinPagesBeforeModelSpend(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head><title>x</title></head><body>hi</body></html>")
	}))
	defer server.Close()

	repo := newMemRepo()
	llm := &scriptedLLM{}
	s := newTestSubmission(repo, &stubSearch{}, llm, server.Client())

	_, err := s.Run(context.Background(), server.URL)
	if !errors.Is(err, ErrInsufficientEvidence) {
		t.Fatalf("err = %v, want ErrInsufficientEvidence", err)
	}
	if llm.calls != 0 {
		t.Fatalf("model calls = %d, thin pages must be rejected before classification", llm.calls)
	}
}

func TestSubmissionRejectsNonCommunityPages(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	search := &stubSearch{}
	search.contents.title = "Acme Widgets"
	search.contents.text = strings.Repeat("We sell industrial widgets to enterprise customers. ", 4)

	llm := &scriptedLLM{responses: []string{
		`{"name":"","is_community":false,"reason":"commercial product site"}`,
	}}
	s := newTestSubmission(repo, search, llm, http.DefaultClient)

	_, err := s.Run(context.Background(), "https://acme.example")
	if !errors.Is(err, ErrNotACommunity) {
		t.Fatalf("err = %v, want ErrNotACommunity", err)
	}
	if !strings.Contains(err.Error(), "commercial product site") {
		t.Fatalf("rejection reason should surface to the submitter: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("nothing should be created")
	}
}

func TestSubmissionRejectsDuplicates(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	repo.names = []string{"Tamera"}
	repo.slugs = []string{"tamera"}

	search := &stubSearch{}
	search.contents.title = "Tamera"
	search.contents.text = strings.Repeat("Tamera is a peace research village in Portugal. ", 4)

	llm := &scriptedLLM{responses: []string{
		`{"name":"Tamera","is_community":true}`,
	}}
	s := newTestSubmission(repo, search, llm, http.DefaultClient)

	_, err := s.Run(context.Background(), "https://tamera.example")
	if !errors.Is(err, ErrDuplicateCommunity) {
		t.Fatalf("err = %v, want ErrDuplicateCommunity", err)
	}
}

func TestSubmissionCreatesCommunity(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	search := &stubSearch{fallback: richResults("https://newvillage.example")}
	search.contents.title = "New Village"
	search.contents.text = strings.Repeat("New Village is an off-grid cohousing project. ", 4)

	llm := &scriptedLLM{responses: []string{
		`{"name":"New Village","is_community":true}`,
		validProfileJSON("New Village"),
	}}
	s := newTestSubmission(repo, search, llm, http.DefaultClient)

	result, err := s.Run(context.Background(), "https://newvillage.example")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Slug != "new-village" || result.Name != "New Village" {
		t.Fatalf("result = %+v", result)
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d", len(repo.created))
	}
	// A single submitted page is one source, no discovery credit.
	if repo.created[0].SourcesCount != 1 {
		t.Fatalf("sources count = %d, want 1", repo.created[0].SourcesCount)
	}
}

func TestSubmissionFallsBackToSubmittedURL(t *testing.T) {
	t.Parallel()

	profileNoSite := `{"name":"Hidden Village","stage":"forming","ai_confidence":0.5,
"scores":{"energy":{"score":3},"land":{"score":3},"tech":{"score":3},
"governance":{"score":3},"community":{"score":3},"circularity":{"score":3}}}`

	repo := newMemRepo()
	search := &stubSearch{fallback: richResults("https://hidden.example")}
	search.contents.title = "Hidden Village"
	search.contents.text = strings.Repeat("Hidden Village is a small forming community. ", 4)

	llm := &scriptedLLM{responses: []string{
		`{"name":"Hidden Village","is_community":true}`,
		profileNoSite,
	}}
	s := newTestSubmission(repo, search, llm, http.DefaultClient)

	if _, err := s.Run(context.Background(), "https://hidden.example/about"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := repo.created[0].WebsiteURL; got != "https://hidden.example/about" {
		t.Fatalf("website = %q, want the submitted URL fallback", got)
	}
}

func TestFetchPageContentScrapeFallback(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Sunrise Farm</title><style>body{}</style></head>
<body><script>track()</script><p>A   regenerative farm   community</p>
<p>growing food together since 2015 on shared land in the hills.</p></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	// Contents endpoint returns nothing, forcing the scrape path.
	s := newTestSubmission(newMemRepo(), &stubSearch{}, &scriptedLLM{}, server.Client())

	title, content := s.fetchPageContent(context.Background(), server.URL)
	if title != "Sunrise Farm" {
		t.Fatalf("title = %q", title)
	}
	if strings.Contains(content, "track()") || strings.Contains(content, "body{}") {
		t.Fatalf("markup should be stripped: %q", content)
	}
	if !strings.Contains(content, "regenerative farm community") {
		t.Fatalf("whitespace should collapse: %q", content)
	}
}

var _ ports.SearchService = (*stubSearch)(nil)
