package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SolarpunkList/internal/config"
	"SolarpunkList/internal/ports"
)

func TestSearchWithoutKeyDegradesToEmpty(t *testing.T) {
	t.Parallel()

	c := NewExaClient(config.SearchConfig{}, nil)
	results, err := c.Search(context.Background(), "anything", ports.SearchOptions{NumResults: 5})
	if err != nil {
		t.Fatalf("missing key must not error: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v, want none", results)
	}
}

func TestSearchRequestShape(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"title":"Earthaven","url":"https://earthaven.example","text":"body","image":"https://img.example/1.jpg","extras":{"imageLinks":["https://img.example/2.jpg"]}}]}`))
	}))
	t.Cleanup(server.Close)

	c := NewExaClient(config.SearchConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	results, err := c.Search(context.Background(), "earthaven", ports.SearchOptions{
		NumResults:    7,
		MaxCharacters: 2500,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if captured["type"] != "neural" {
		t.Fatalf("type = %v", captured["type"])
	}
	if captured["numResults"] != float64(7) {
		t.Fatalf("numResults = %v", captured["numResults"])
	}
	contents := captured["contents"].(map[string]any)
	text := contents["text"].(map[string]any)
	if text["maxCharacters"] != float64(2500) {
		t.Fatalf("maxCharacters = %v", text["maxCharacters"])
	}

	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Image != "https://img.example/1.jpg" || len(results[0].ImageLinks) != 1 {
		t.Fatalf("result = %+v", results[0])
	}
}

func TestSearchImageModeRequestsImageLinks(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	c := NewExaClient(config.SearchConfig{APIKey: "k", BaseURL: server.URL}, nil)
	_, err := c.Search(context.Background(), "q", ports.SearchOptions{
		NumResults:     10,
		WantImages:     true,
		IncludeDomains: []string{"earthaven.example"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	contents := captured["contents"].(map[string]any)
	if contents["text"] != false {
		t.Fatalf("image mode must not request text, got %v", contents["text"])
	}
	extras := contents["extras"].(map[string]any)
	if extras["imageLinks"] != float64(5) {
		t.Fatalf("imageLinks = %v", extras["imageLinks"])
	}
	domains := captured["includeDomains"].([]any)
	if len(domains) != 1 || domains[0] != "earthaven.example" {
		t.Fatalf("includeDomains = %v", domains)
	}
}

func TestSearchAPIErrorDegradesToEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	c := NewExaClient(config.SearchConfig{APIKey: "k", BaseURL: server.URL}, nil)
	results, err := c.Search(context.Background(), "q", ports.SearchOptions{NumResults: 5})
	if err != nil {
		t.Fatalf("API failure must degrade, not error: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v", results)
	}
}

func TestContents(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"title":"About","text":"page text"}]}`))
	}))
	t.Cleanup(server.Close)

	c := NewExaClient(config.SearchConfig{APIKey: "k", BaseURL: server.URL}, nil)
	title, text, err := c.Contents(context.Background(), "https://x.example", 5000)
	if err != nil {
		t.Fatalf("contents: %v", err)
	}
	if title != "About" || text != "page text" {
		t.Fatalf("got %q / %q", title, text)
	}
}
