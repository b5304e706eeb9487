package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
	"SolarpunkList/internal/profile"
)

const (
	staleAfter            = 30 * 24 * time.Hour
	refreshResultsPerName = 5
)

// RefreshSummary reports the totals of one refresh run.
type RefreshSummary struct {
	CommunitiesChecked     int
	ContentChangesDetected int
	StageChanges           int
	DormantFlagged         int
	Errors                 []string
}

// Refresh re-verifies stale published communities against fresh research
// and applies sparse updates.
type Refresh struct {
	search ports.SearchService
	engine *profile.Engine
	repo   ports.CommunityRepository
	clock  ports.Clock
	logger *slog.Logger
}

// RefreshDeps wires the driven adapters into the refresh pipeline.
type RefreshDeps struct {
	Search ports.SearchService
	Engine *profile.Engine
	Repo   ports.CommunityRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// NewRefresh constructs the refresh pipeline.
func NewRefresh(deps RefreshDeps) *Refresh {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresh{
		search: deps.Search,
		engine: deps.Engine,
		repo:   deps.Repo,
		clock:  clock,
		logger: logger,
	}
}

// NeedsRefresh reports whether a community is stale as of now: never
// refreshed, or last refreshed more than thirty days ago.
func NeedsRefresh(c domain.Community, now time.Time) bool {
	if c.LastRefreshedAt == nil {
		return true
	}
	return c.LastRefreshedAt.Before(now.Add(-staleAfter))
}

// Run executes one refresh pass over all stale published communities.
// Per-entity failures land in the summary; exactly one audit record is
// written at the end.
func (r *Refresh) Run(ctx context.Context) (RefreshSummary, error) {
	summary := RefreshSummary{}

	published, err := r.repo.ListPublished(ctx)
	if err != nil {
		return summary, fmt.Errorf("list published: %w", err)
	}

	now := r.clock.Now()
	var stale []domain.Community
	for _, c := range published {
		if NeedsRefresh(c, now) {
			stale = append(stale, c)
		}
	}
	summary.CommunitiesChecked = len(stale)
	r.logger.Info("refresh selection", "stale", len(stale), "published", len(published))

	for _, community := range stale {
		if err := r.refreshOne(ctx, community, &summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("refresh failed for %s: %v", community.Name, err))
		}
	}

	run := domain.RefreshRun{
		RunDate:                r.clock.Now(),
		CommunitiesChecked:     summary.CommunitiesChecked,
		ContentChangesDetected: summary.ContentChangesDetected,
		StageChanges:           summary.StageChanges,
		DormantFlagged:         summary.DormantFlagged,
		Errors:                 summary.Errors,
		Status:                 "completed",
	}
	if err := r.repo.WriteRefreshRun(ctx, run); err != nil {
		return summary, fmt.Errorf("write refresh run: %w", err)
	}

	r.logger.Info("refresh complete",
		"checked", summary.CommunitiesChecked,
		"content_changes", summary.ContentChangesDetected,
		"stage_changes", summary.StageChanges,
		"dormant", summary.DormantFlagged)

	return summary, nil
}

func (r *Refresh) refreshOne(ctx context.Context, community domain.Community, summary *RefreshSummary) error {
	results, err := r.search.Search(ctx, fmt.Sprintf("%s intentional community ecovillage", community.Name), ports.SearchOptions{
		NumResults:    refreshResultsPerName,
		MaxCharacters: searchMaxCharacters,
	})
	if err != nil {
		// Degraded search still advances the staleness clock.
		r.logger.Warn("refresh search failed", "name", community.Name, "error", err)
		return r.touch(ctx, community)
	}

	freshContext := profile.BuildResearchContext(results, false)
	if freshContext == "" {
		return r.touch(ctx, community)
	}

	diff := r.engine.Diff(ctx, community.Overview, freshContext)
	if diff == nil || diff.StatusChange == nil {
		// Nothing changed; touching prevents reselection every run.
		return r.touch(ctx, community)
	}

	patch := r.buildPatch(community, diff, summary)
	if err := r.repo.UpdateCommunity(ctx, community.ID, patch); err != nil {
		return fmt.Errorf("update community: %w", err)
	}

	if len(diff.NewTags) > 0 {
		if err := r.repo.AddTags(ctx, community.ID, diff.NewTags); err != nil {
			return fmt.Errorf("add tags: %w", err)
		}
	}

	r.logger.Info("refreshed community", "name", community.Name, "change", *diff.StatusChange)
	return nil
}

// buildPatch maps a model diff onto a storage patch. Dormancy overrides
// any stage value carried in the same diff.
func (r *Refresh) buildPatch(community domain.Community, diff *profile.RefreshDiff, summary *RefreshSummary) domain.CommunityUpdate {
	patch := r.touchPatch(community)

	if diff.Overview != nil && *diff.Overview != "" {
		patch.Overview = diff.Overview
		summary.ContentChangesDetected++
	}
	if diff.Stage != nil {
		stage := domain.Stage(*diff.Stage)
		if domain.ValidStage(stage) && stage != community.Stage {
			patch.Stage = &stage
			summary.StageChanges++
		}
	}
	if diff.IsDormant {
		dormant := domain.StageDormant
		patch.Stage = &dormant
		summary.DormantFlagged++
	}
	if diff.Population != nil {
		patch.Population = diff.Population
	}
	if diff.CommunityLife != nil && *diff.CommunityLife != "" {
		patch.CommunityLife = diff.CommunityLife
	}
	if diff.HowToJoin != nil && *diff.HowToJoin != "" {
		patch.HowToJoin = diff.HowToJoin
	}
	if diff.ConfidenceAdjustment != nil {
		patch.AIConfidence = diff.ConfidenceAdjustment
	}

	return patch
}

// touch advances the staleness timestamp and refresh counter without
// altering content.
func (r *Refresh) touch(ctx context.Context, community domain.Community) error {
	if err := r.repo.UpdateCommunity(ctx, community.ID, r.touchPatch(community)); err != nil {
		return fmt.Errorf("touch community: %w", err)
	}
	return nil
}

func (r *Refresh) touchPatch(community domain.Community) domain.CommunityUpdate {
	now := r.clock.Now()
	count := community.RefreshCount + 1
	return domain.CommunityUpdate{
		LastRefreshedAt: &now,
		RefreshCount:    &count,
	}
}
