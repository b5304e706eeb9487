package profile

import (
	"fmt"

	"SolarpunkList/internal/domain"
)

// ScoreEntry is one scored dimension with the model's cited evidence.
type ScoreEntry struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// ScoreSet groups the six sub-dimension entries.
type ScoreSet struct {
	Energy      ScoreEntry `json:"energy"`
	Land        ScoreEntry `json:"land"`
	Tech        ScoreEntry `json:"tech"`
	Governance  ScoreEntry `json:"governance"`
	Community   ScoreEntry `json:"community"`
	Circularity ScoreEntry `json:"circularity"`
}

// Profile is the structured document the model returns for one community.
// Field names follow the response schema, not Go conventions.
type Profile struct {
	Name                string              `json:"name"`
	Tagline             string              `json:"tagline"`
	Overview            string              `json:"overview"`
	Stage               string              `json:"stage"`
	FoundedYear         *int                `json:"founded_year"`
	Population          *int                `json:"population"`
	LocationCountry     string              `json:"location_country"`
	LocationRegion      string              `json:"location_region"`
	LocationLat         *float64            `json:"location_lat"`
	LocationLng         *float64            `json:"location_lng"`
	WebsiteURL          string              `json:"website_url"`
	Scores              ScoreSet            `json:"scores"`
	TechStack           map[string][]string `json:"tech_stack"`
	LandDescription     string              `json:"land_description"`
	CommunityLife       string              `json:"community_life"`
	HowToJoin           string              `json:"how_to_join"`
	Tags                []string            `json:"tags"`
	AIConfidence        float64             `json:"ai_confidence"`
	IsFormingDisclaimer bool                `json:"is_forming_disclaimer"`
}

// WeightedScore folds the six 0-10 sub-scores into the 0-100 aggregate.
// Weights: energy/land/tech 20, governance/community 15, circularity 10.
func WeightedScore(s ScoreSet) float64 {
	return (s.Energy.Score*20 +
		s.Land.Score*20 +
		s.Tech.Score*20 +
		s.Governance.Score*15 +
		s.Community.Score*15 +
		s.Circularity.Score*10) / 10
}

// Validate rejects documents that would persist a partial or out-of-range
// record. The schema check fails closed: a bad document is dropped whole.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.Stage != "" && !domain.ValidStage(domain.Stage(p.Stage)) {
		return fmt.Errorf("unknown stage %q", p.Stage)
	}
	for dim, entry := range map[string]ScoreEntry{
		"energy":      p.Scores.Energy,
		"land":        p.Scores.Land,
		"tech":        p.Scores.Tech,
		"governance":  p.Scores.Governance,
		"community":   p.Scores.Community,
		"circularity": p.Scores.Circularity,
	} {
		if entry.Score < 0 || entry.Score > 10 {
			return fmt.Errorf("score %s out of range: %v", dim, entry.Score)
		}
	}
	if p.AIConfidence < 0 || p.AIConfidence > 1 {
		return fmt.Errorf("ai_confidence out of range: %v", p.AIConfidence)
	}
	return nil
}

// DomainScores converts the scored entries into the stored representation.
func (p *Profile) DomainScores() domain.Scores {
	return domain.Scores{
		Energy:      p.Scores.Energy.Score,
		Land:        p.Scores.Land.Score,
		Tech:        p.Scores.Tech.Score,
		Governance:  p.Scores.Governance.Score,
		Community:   p.Scores.Community.Score,
		Circularity: p.Scores.Circularity.Score,
	}
}

// RefreshDiff is the sparse patch the model returns when re-researching an
// existing community. Nil means "unchanged"; a nil StatusChange gates the
// whole content update.
type RefreshDiff struct {
	Overview             *string  `json:"overview"`
	Stage                *string  `json:"stage"`
	Population           *int     `json:"population"`
	CommunityLife        *string  `json:"community_life"`
	HowToJoin            *string  `json:"how_to_join"`
	NewTags              []string `json:"new_tags"`
	StatusChange         *string  `json:"status_change"`
	IsDormant            bool     `json:"is_dormant"`
	ConfidenceAdjustment *float64 `json:"confidence_adjustment"`
}

// Candidate is a community name surfaced by discovery, with the URLs that
// mentioned it.
type Candidate struct {
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
}
