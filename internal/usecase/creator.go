package usecase

import (
	"context"
	"fmt"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/identity"
	"SolarpunkList/internal/ports"
	"SolarpunkList/internal/profile"
)

// researchCommunity re-searches a named community and synthesizes its
// profile. Sparse evidence yields (nil, nil): skip without an error.
func researchCommunity(ctx context.Context, search ports.SearchService, engine *profile.Engine, name string) (*profile.Profile, error) {
	results, err := search.Search(ctx, fmt.Sprintf("%q intentional community ecovillage", name), ports.SearchOptions{
		NumResults:    resultsPerQuery,
		MaxCharacters: searchMaxCharacters,
	})
	if err != nil {
		return nil, fmt.Errorf("research search: %w", err)
	}

	researchContext := profile.BuildResearchContext(results, false)
	if len(researchContext) < minResearchContext {
		return nil, nil
	}

	return engine.Synthesize(ctx, name, researchContext), nil
}

// persistCommunity writes a validated profile plus its tags and website
// link. websiteURL lets the submission path substitute the submitted URL
// when the model found no website.
func persistCommunity(ctx context.Context, repo ports.CommunityRepository, clock ports.Clock, p *profile.Profile, websiteURL string, sourcesCount int) (domain.Community, error) {
	now := clock.Now()
	stage := domain.Stage(p.Stage)
	if stage == "" {
		stage = domain.StageForming
	}

	community := domain.Community{
		Name:                p.Name,
		Slug:                identity.Slugify(p.Name),
		Tagline:             p.Tagline,
		Overview:            p.Overview,
		LocationCountry:     p.LocationCountry,
		LocationRegion:      p.LocationRegion,
		LocationLat:         p.LocationLat,
		LocationLng:         p.LocationLng,
		Stage:               stage,
		Population:          p.Population,
		FoundedYear:         p.FoundedYear,
		WebsiteURL:          websiteURL,
		SolarpunkScore:      profile.WeightedScore(p.Scores),
		Scores:              p.DomainScores(),
		TechStack:           p.TechStack,
		CommunityLife:       p.CommunityLife,
		HowToJoin:           p.HowToJoin,
		LandDescription:     p.LandDescription,
		AIConfidence:        p.AIConfidence,
		SourcesCount:        sourcesCount,
		IsPublished:         true,
		IsFormingDisclaimer: p.IsFormingDisclaimer,
		LastResearchedAt:    &now,
		LastRefreshedAt:     &now,
	}

	created, err := repo.CreateCommunity(ctx, community)
	if err != nil {
		return domain.Community{}, fmt.Errorf("create community: %w", err)
	}

	if len(p.Tags) > 0 {
		if err := repo.AddTags(ctx, created.ID, p.Tags); err != nil {
			return domain.Community{}, fmt.Errorf("add tags: %w", err)
		}
	}
	if websiteURL != "" {
		link := domain.Link{URL: websiteURL, Title: "Official Website", Type: "website"}
		if err := repo.AddLinks(ctx, created.ID, []domain.Link{link}); err != nil {
			return domain.Community{}, fmt.Errorf("add links: %w", err)
		}
	}

	return created, nil
}
