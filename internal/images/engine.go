package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
)

const (
	sourcingTarget     = 6
	maxCandidatesTried = 12
	maxAccepted        = 8
	minBackfillImages  = 3
	imageSearchResults = 10
)

// Candidate is one sourced image URL before verification.
type Candidate struct {
	ImageURL  string
	SourceURL string
	AltText   string
}

// Engine sources, filters and verifies photographic assets for
// communities, and keeps their hero images healthy.
type Engine struct {
	search    ports.SearchService
	repo      ports.CommunityRepository
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewEngine wires the search and storage ports. A nil client gets a
// bounded default.
func NewEngine(search ports.SearchService, repo ports.CommunityRepository, client *http.Client, logger *slog.Logger) *Engine {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		search:    search,
		repo:      repo,
		client:    client,
		userAgent: "SolarpunkList/1.0",
		logger:    logger,
	}
}

// FetchAndStore sources candidate images for one community, verifies
// them, and persists the survivors. On the first successful batch for an
// entity with no images, the first verified image becomes the hero.
// Returns the number of images stored.
func (e *Engine) FetchAndStore(ctx context.Context, communityID, name, websiteURL string) (int, error) {
	e.logger.Debug("fetching images", "community", name)

	existing, err := e.repo.ImagesByCommunityID(ctx, communityID)
	if err != nil {
		return 0, fmt.Errorf("list existing images: %w", err)
	}
	existingURLs := make(map[string]struct{}, len(existing))
	for _, img := range existing {
		existingURLs[img.ImageURL] = struct{}{}
	}

	candidates := e.sourceCandidates(ctx, name, websiteURL, existingURLs)
	if len(candidates) == 0 {
		e.logger.Debug("no new image candidates", "community", name)
		return 0, nil
	}

	if len(candidates) > maxCandidatesTried {
		candidates = candidates[:maxCandidatesTried]
	}

	var verified []Candidate
	for _, c := range candidates {
		if len(verified) >= maxAccepted {
			break
		}
		if e.VerifyImageURL(ctx, c.ImageURL) {
			verified = append(verified, c)
		}
	}
	if len(verified) == 0 {
		e.logger.Debug("no candidates survived verification", "community", name)
		return 0, nil
	}

	firstBatch := len(existing) == 0
	if firstBatch {
		hero := verified[0].ImageURL
		if err := e.repo.UpdateCommunity(ctx, communityID, domain.CommunityUpdate{HeroImageURL: &hero}); err != nil {
			return 0, fmt.Errorf("set hero image: %w", err)
		}
	}

	startOrder := len(existing)
	toStore := make([]domain.Image, 0, len(verified))
	for i, c := range verified {
		alt := c.AltText
		if alt == "" {
			alt = name + " photo"
		}
		toStore = append(toStore, domain.Image{
			ImageURL:  c.ImageURL,
			AltText:   alt,
			SourceURL: c.SourceURL,
			IsHero:    firstBatch && i == 0,
			SortOrder: startOrder + i,
		})
	}
	if err := e.repo.AddImages(ctx, communityID, toStore); err != nil {
		return 0, fmt.Errorf("store images: %w", err)
	}

	e.logger.Info("stored images", "community", name, "count", len(toStore))
	return len(toStore), nil
}

// sourceCandidates prefers images scoped to the community's own domain,
// then widens to general web search until the target count accumulates.
func (e *Engine) sourceCandidates(ctx context.Context, name, websiteURL string, existingURLs map[string]struct{}) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{})

	add := func(results []ports.SearchResult) {
		for _, r := range results {
			if r.Image != "" {
				out = appendCandidate(out, seen, existingURLs, Candidate{ImageURL: r.Image, SourceURL: r.URL, AltText: r.Title})
			}
			for _, link := range r.ImageLinks {
				out = appendCandidate(out, seen, existingURLs, Candidate{ImageURL: link, SourceURL: r.URL, AltText: r.Title})
			}
		}
	}

	if domainName := extractDomain(websiteURL); domainName != "" {
		results, err := e.search.Search(ctx, fmt.Sprintf("%s community", name), ports.SearchOptions{
			NumResults:     imageSearchResults,
			WantImages:     true,
			IncludeDomains: []string{domainName},
		})
		if err != nil {
			e.logger.Warn("site-scoped image search failed", "community", name, "error", err)
		} else {
			add(results)
		}
	}

	if len(out) < sourcingTarget {
		queries := []string{
			fmt.Sprintf("%q ecovillage community photos", name),
			fmt.Sprintf("%s sustainable community", name),
		}
		for _, query := range queries {
			results, err := e.search.Search(ctx, query, ports.SearchOptions{
				NumResults: imageSearchResults,
				WantImages: true,
			})
			if err != nil {
				e.logger.Warn("image search failed", "community", name, "error", err)
				continue
			}
			add(results)
			if len(out) >= sourcingTarget {
				break
			}
		}
	}

	return out
}

func appendCandidate(out []Candidate, seen, existing map[string]struct{}, c Candidate) []Candidate {
	if _, dup := seen[c.ImageURL]; dup {
		return out
	}
	if _, have := existing[c.ImageURL]; have {
		return out
	}
	if !IsUsableImageURL(c.ImageURL) {
		return out
	}
	seen[c.ImageURL] = struct{}{}
	return append(out, c)
}

// BackfillReport summarizes one directory-wide image backfill.
type BackfillReport struct {
	CommunitiesProcessed int
	TotalImagesAdded     int
	Errors               []string
}

// BackfillAll re-runs acquisition for every community holding fewer than
// three images. Per-community failures are collected, not fatal.
func (e *Engine) BackfillAll(ctx context.Context) (BackfillReport, error) {
	report := BackfillReport{}

	communities, err := e.repo.ListPublished(ctx)
	if err != nil {
		return report, fmt.Errorf("list communities: %w", err)
	}

	for _, c := range communities {
		imgs, err := e.repo.ImagesByCommunityID(ctx, c.ID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("failed for %s: %v", c.Name, err))
			continue
		}
		if len(imgs) >= minBackfillImages {
			continue
		}

		count, err := e.FetchAndStore(ctx, c.ID, c.Name, c.WebsiteURL)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("failed for %s: %v", c.Name, err))
			continue
		}
		report.CommunitiesProcessed++
		report.TotalImagesAdded += count
	}

	e.logger.Info("image backfill complete",
		"processed", report.CommunitiesProcessed,
		"added", report.TotalImagesAdded,
		"errors", len(report.Errors))

	return report, nil
}
