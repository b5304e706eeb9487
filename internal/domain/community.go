package domain

import "time"

// Stage describes the lifecycle phase of a community.
type Stage string

const (
	StageForming     Stage = "forming"
	StageEstablished Stage = "established"
	StageMature      Stage = "mature"
	StageDormant     Stage = "dormant"
)

// ValidStage reports whether s is one of the known lifecycle stages.
func ValidStage(s Stage) bool {
	switch s {
	case StageForming, StageEstablished, StageMature, StageDormant:
		return true
	}
	return false
}

// Scores holds the six sub-dimension scores, each on a 0-10 scale.
type Scores struct {
	Energy      float64
	Land        float64
	Tech        float64
	Governance  float64
	Community   float64
	Circularity float64
}

// Community is the core entity describing one researched community.
type Community struct {
	ID                  string
	Name                string
	Slug                string
	Tagline             string
	Overview            string
	LocationCountry     string
	LocationRegion      string
	LocationLat         *float64
	LocationLng         *float64
	Stage               Stage
	Population          *int
	FoundedYear         *int
	WebsiteURL          string
	HeroImageURL        string
	SolarpunkScore      float64
	Scores              Scores
	TechStack           map[string][]string
	CommunityLife       string
	HowToJoin           string
	LandDescription     string
	AIConfidence        float64
	SourcesCount        int
	RefreshCount        int
	IsPublished         bool
	IsFormingDisclaimer bool
	LastResearchedAt    *time.Time
	LastRefreshedAt     *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Tag is an entity-scoped label.
type Tag struct {
	ID          string
	CommunityID string
	Tag         string
}

// Link points to an external resource for a community.
type Link struct {
	ID          string
	CommunityID string
	URL         string
	Title       string
	Type        string
}

// Image is a photographic asset attached to a community. Exactly one
// image per community should carry IsHero at any time; the image engine
// enforces that, not storage.
type Image struct {
	ID          string
	CommunityID string
	ImageURL    string
	AltText     string
	SourceURL   string
	IsHero      bool
	SortOrder   int
	CreatedAt   time.Time
}

// CommunityUpdate is a sparse patch applied to an existing community.
// Nil fields mean "leave unchanged".
type CommunityUpdate struct {
	Overview        *string
	Stage           *Stage
	Population      *int
	CommunityLife   *string
	HowToJoin       *string
	AIConfidence    *float64
	HeroImageURL    *string
	LastRefreshedAt *time.Time
	RefreshCount    *int
}

// DiscoveryRun is the append-only audit record for one discovery run.
type DiscoveryRun struct {
	ID                  string
	RunDate             time.Time
	QueriesExecuted     int
	ResultsFound        int
	DuplicatesSkipped   int
	NewCommunitiesAdded int
	Errors              []string
	Status              string
}

// RefreshRun is the append-only audit record for one refresh run.
type RefreshRun struct {
	ID                     string
	RunDate                time.Time
	CommunitiesChecked     int
	ContentChangesDetected int
	StageChanges           int
	DormantFlagged         int
	Errors                 []string
	Status                 string
}

// Subscriber is one announcement recipient.
type Subscriber struct {
	ID    string
	Email string
}
