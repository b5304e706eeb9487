package images

import (
	"context"
	"fmt"
	"strings"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
)

// Audit actions recorded per repaired community.
const (
	ActionNone             = "none"
	ActionHTTPSUpgrade     = "https_upgrade"
	ActionSiteSearchRepair = "replaced_from_site_search"
	ActionWebSearchRepair  = "replaced_from_web_search"
	ActionLocalFallback    = "local_fallback"
)

// AuditEntry records one community's hero issue and the repair applied.
type AuditEntry struct {
	Slug   string
	Name   string
	Issue  string
	Action string
}

// AuditReport summarizes one directory-wide hero sweep.
type AuditReport struct {
	Checked int
	Healthy int
	Fixed   int
	Entries []AuditEntry
	Errors  []string
}

// AuditHeroImages walks every community, classifies the current hero and
// repairs invalid ones through the cascade. The sweep never aborts on a
// single community.
func (e *Engine) AuditHeroImages(ctx context.Context) (AuditReport, error) {
	report := AuditReport{}

	communities, err := e.repo.ListPublished(ctx)
	if err != nil {
		return report, fmt.Errorf("list communities: %w", err)
	}

	for _, c := range communities {
		report.Checked++

		issue := e.classifyHero(ctx, &c)
		if issue == "" {
			report.Healthy++
			continue
		}

		action, repairErr := e.repairHero(ctx, c, issue)
		if repairErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("repair failed for %s: %v", c.Name, repairErr))
			continue
		}
		if action != ActionNone {
			report.Fixed++
		}
		report.Entries = append(report.Entries, AuditEntry{
			Slug:   c.Slug,
			Name:   c.Name,
			Issue:  issue,
			Action: action,
		})
	}

	e.logger.Info("hero audit complete",
		"checked", report.Checked,
		"healthy", report.Healthy,
		"fixed", report.Fixed,
		"errors", len(report.Errors))

	return report, nil
}

// classifyHero returns "" for a healthy hero. As a side effect, a hero
// that only needed an https upgrade is rewritten in place and counts as
// healthy.
func (e *Engine) classifyHero(ctx context.Context, c *domain.Community) string {
	if c.HeroImageURL == "" {
		return "missing_hero"
	}

	verdict := e.ValidateHeroImage(ctx, c.HeroImageURL)
	if !verdict.OK {
		return verdict.Reason
	}

	if verdict.FinalURL != c.HeroImageURL {
		if err := e.setHero(ctx, c.ID, verdict.FinalURL); err != nil {
			e.logger.Warn("https upgrade write failed", "community", c.Name, "error", err)
		} else {
			c.HeroImageURL = verdict.FinalURL
		}
	}
	return ""
}

// repairHero runs the ordered cascade; the first success wins.
func (e *Engine) repairHero(ctx context.Context, c domain.Community, issue string) (string, error) {
	if strings.HasPrefix(c.HeroImageURL, "http://") {
		upgraded := "https://" + strings.TrimPrefix(c.HeroImageURL, "http://")
		if e.VerifyImageURL(ctx, upgraded) {
			return ActionHTTPSUpgrade, e.setHero(ctx, c.ID, upgraded)
		}
	}

	if domainName := extractDomain(c.WebsiteURL); domainName != "" {
		if url := e.searchValidHero(ctx, c.Name, []string{domainName}); url != "" {
			return ActionSiteSearchRepair, e.setHero(ctx, c.ID, url)
		}
	}

	if url := e.searchValidHero(ctx, c.Name, nil); url != "" {
		return ActionWebSearchRepair, e.setHero(ctx, c.ID, url)
	}

	fallback := fmt.Sprintf("/images/communities/%s.jpg", c.Slug)
	return ActionLocalFallback, e.setHero(ctx, c.ID, fallback)
}

// searchValidHero returns the first searched candidate that passes the
// full hero validation, or "".
func (e *Engine) searchValidHero(ctx context.Context, name string, includeDomains []string) string {
	results, err := e.search.Search(ctx, fmt.Sprintf("%s community", name), ports.SearchOptions{
		NumResults:     imageSearchResults,
		WantImages:     true,
		IncludeDomains: includeDomains,
	})
	if err != nil {
		return ""
	}

	for _, r := range results {
		candidates := r.ImageLinks
		if r.Image != "" {
			candidates = append([]string{r.Image}, candidates...)
		}
		for _, candidate := range candidates {
			if !IsUsableImageURL(candidate) {
				continue
			}
			if verdict := e.ValidateHeroImage(ctx, candidate); verdict.OK {
				return verdict.FinalURL
			}
		}
	}
	return ""
}

func (e *Engine) setHero(ctx context.Context, communityID, url string) error {
	return e.repo.UpdateCommunity(ctx, communityID, domain.CommunityUpdate{HeroImageURL: &url})
}
