package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/identity"
	"SolarpunkList/internal/images"
	"SolarpunkList/internal/notify"
	"SolarpunkList/internal/ports"
	"SolarpunkList/internal/profile"
)

// discoveryQueries is the fixed topical pool sampled each run.
var discoveryQueries = []string{
	"intentional community regenerative technology solar off-grid",
	"ecovillage IoT sensors permaculture smart grid",
	"solarpunk land project decentralized infrastructure",
	"regenerative community robotics automation green energy",
	"off-grid community drone agriculture water recycling",
	"community land trust renewable energy food forest tech",
	"cooperative ecovillage blockchain governance solar",
	"earth-ship community aquaponics renewable",
	"bioregional community open source hardware",
	"transition town technology permaculture design",
}

const (
	queriesPerRun       = 5
	resultsPerQuery     = 10
	searchMaxCharacters = 3000
	minResearchContext  = 100
	extraSourceCredit   = 5
)

// DiscoverySummary reports the totals of one discovery run.
type DiscoverySummary struct {
	QueriesExecuted     int
	ResultsFound        int
	DuplicatesSkipped   int
	NewCommunitiesAdded int
	Errors              []string
}

// Discovery finds communities the directory does not know yet and turns
// them into published records, one candidate at a time.
type Discovery struct {
	search    ports.SearchService
	engine    *profile.Engine
	repo      ports.CommunityRepository
	imageEng  *images.Engine
	notifier  *notify.Notifier
	clock     ports.Clock
	logger    *slog.Logger
	shuffleFn func(n int, swap func(i, j int))
}

// DiscoveryDeps wires the driven adapters into the pipeline.
type DiscoveryDeps struct {
	Search   ports.SearchService
	Engine   *profile.Engine
	Repo     ports.CommunityRepository
	Images   *images.Engine
	Notifier *notify.Notifier
	Clock    ports.Clock
	Logger   *slog.Logger
}

// NewDiscovery constructs the discovery pipeline.
func NewDiscovery(deps DiscoveryDeps) *Discovery {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		search:    deps.Search,
		engine:    deps.Engine,
		repo:      deps.Repo,
		imageEng:  deps.Images,
		notifier:  deps.Notifier,
		clock:     clock,
		logger:    logger,
		shuffleFn: rand.Shuffle,
	}
}

// Run executes one full discovery pass. Item failures are collected into
// the summary; the run always ends by writing exactly one audit record.
func (d *Discovery) Run(ctx context.Context) (DiscoverySummary, error) {
	summary := DiscoverySummary{}

	knownSlugs, err := d.repo.ListKnownSlugs(ctx)
	if err != nil {
		return summary, fmt.Errorf("list known slugs: %w", err)
	}
	knownNames, err := d.repo.ListKnownNames(ctx)
	if err != nil {
		return summary, fmt.Errorf("list known names: %w", err)
	}
	dedup := identity.NewDedupIndex(knownSlugs, knownNames)

	queries := d.sampleQueries()
	summary.QueriesExecuted = len(queries)
	d.logger.Info("running discovery queries", "count", len(queries))

	var allResults []ports.SearchResult
	for _, query := range queries {
		results, err := d.search.Search(ctx, query, ports.SearchOptions{
			NumResults:    resultsPerQuery,
			MaxCharacters: searchMaxCharacters,
		})
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("search failed for query %q: %v", query, err))
			continue
		}
		summary.ResultsFound += len(results)
		allResults = append(allResults, results...)
		d.logger.Debug("query done", "query", query, "results", len(results))
	}

	unique := dedupeByURL(allResults)
	d.logger.Info("deduplicated search results", "unique", len(unique), "total", summary.ResultsFound)

	candidates := d.engine.ExtractCandidates(ctx, unique, knownNames)
	d.logger.Info("extracted candidates", "count", len(candidates))

	for _, candidate := range candidates {
		if err := d.processCandidate(ctx, candidate, dedup, &summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("processing failed for %s: %v", candidate.Name, err))
		}
	}

	run := domain.DiscoveryRun{
		RunDate:             d.clock.Now(),
		QueriesExecuted:     summary.QueriesExecuted,
		ResultsFound:        summary.ResultsFound,
		DuplicatesSkipped:   summary.DuplicatesSkipped,
		NewCommunitiesAdded: summary.NewCommunitiesAdded,
		Errors:              summary.Errors,
		Status:              "completed",
	}
	if err := d.repo.WriteDiscoveryRun(ctx, run); err != nil {
		return summary, fmt.Errorf("write discovery run: %w", err)
	}

	d.logger.Info("discovery complete",
		"queries", summary.QueriesExecuted,
		"results", summary.ResultsFound,
		"duplicates", summary.DuplicatesSkipped,
		"added", summary.NewCommunitiesAdded,
		"errors", len(summary.Errors))

	return summary, nil
}

func (d *Discovery) processCandidate(ctx context.Context, candidate profile.Candidate, dedup *identity.DedupIndex, summary *DiscoverySummary) error {
	// Cheap rejection before any model spend.
	if dedup.IsDuplicate(candidate.Name) {
		d.logger.Debug("skipping duplicate candidate", "name", candidate.Name)
		summary.DuplicatesSkipped++
		return nil
	}

	d.logger.Info("researching candidate", "name", candidate.Name)
	p, researchErr := researchCommunity(ctx, d.search, d.engine, candidate.Name)
	if researchErr != nil {
		return researchErr
	}
	if p == nil {
		d.logger.Info("no profile generated", "name", candidate.Name)
		return nil
	}

	// The model may have renamed the entity; check again on the final name.
	if dedup.IsDuplicate(p.Name) {
		summary.DuplicatesSkipped++
		return nil
	}

	created, err := persistCommunity(ctx, d.repo, d.clock, p, p.WebsiteURL, len(candidate.Sources)+extraSourceCredit)
	if err != nil {
		return err
	}

	if d.imageEng != nil {
		if _, imgErr := d.imageEng.FetchAndStore(ctx, created.ID, created.Name, created.WebsiteURL); imgErr != nil {
			d.logger.Error("image fetch failed", "name", created.Name, "error", imgErr)
		}
	}

	dedup.Add(p.Name)
	summary.NewCommunitiesAdded++
	d.logger.Info("community added", "name", created.Name, "score", created.SolarpunkScore, "confidence", created.AIConfidence)

	if d.notifier != nil {
		d.notifier.AnnounceAsync(ctx, created)
	}
	return nil
}

func (d *Discovery) sampleQueries() []string {
	pool := make([]string, len(discoveryQueries))
	copy(pool, discoveryQueries)
	d.shuffleFn(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > queriesPerRun {
		pool = pool[:queriesPerRun]
	}
	return pool
}

func dedupeByURL(results []ports.SearchResult) []ports.SearchResult {
	seen := make(map[string]struct{}, len(results))
	unique := make([]ports.SearchResult, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}
