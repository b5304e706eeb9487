package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
)

// PostgresRepository persists communities and run audits into Postgres.
type PostgresRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.CommunityRepository = (*PostgresRepository)(nil)

// Open connects using the pgx database/sql driver.
func Open(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresRepository(db), nil
}

// NewPostgresRepository wires an existing sql.DB.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var communityColumns = []string{
	"id", "name", "slug", "tagline", "overview",
	"location_country", "location_region", "location_lat", "location_lng",
	"stage", "population", "founded_year", "website_url", "hero_image_url",
	"solarpunk_score", "score_energy", "score_land", "score_tech",
	"score_governance", "score_community", "score_circularity",
	"tech_stack", "community_life", "how_to_join", "land_description",
	"ai_confidence", "sources_count", "refresh_count",
	"is_published", "is_forming_disclaimer",
	"last_researched_at", "last_refreshed_at", "created_at", "updated_at",
}

// CreateCommunity inserts one community. The slug carries a uniqueness
// constraint; a violation at insert time is the authoritative duplicate
// signal, the pipelines' pre-checks are only a cost-saving fast path.
func (r *PostgresRepository) CreateCommunity(ctx context.Context, c domain.Community) (domain.Community, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	techStack, err := json.Marshal(c.TechStack)
	if err != nil {
		return domain.Community{}, fmt.Errorf("marshal tech stack: %w", err)
	}

	query := r.sb.Insert("communities").
		Columns(communityColumns...).
		Values(
			c.ID, c.Name, c.Slug, nullStr(c.Tagline), nullStr(c.Overview),
			nullStr(c.LocationCountry), nullStr(c.LocationRegion), c.LocationLat, c.LocationLng,
			nullStr(string(c.Stage)), c.Population, c.FoundedYear, nullStr(c.WebsiteURL), nullStr(c.HeroImageURL),
			c.SolarpunkScore, c.Scores.Energy, c.Scores.Land, c.Scores.Tech,
			c.Scores.Governance, c.Scores.Community, c.Scores.Circularity,
			techStack, nullStr(c.CommunityLife), nullStr(c.HowToJoin), nullStr(c.LandDescription),
			c.AIConfidence, c.SourcesCount, c.RefreshCount,
			c.IsPublished, c.IsFormingDisclaimer,
			c.LastResearchedAt, c.LastRefreshedAt, c.CreatedAt, c.UpdatedAt,
		)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return domain.Community{}, fmt.Errorf("insert community: %w", err)
	}
	return c, nil
}

// UpdateCommunity applies a sparse patch; nil fields stay untouched.
func (r *PostgresRepository) UpdateCommunity(ctx context.Context, id string, patch domain.CommunityUpdate) error {
	query := r.sb.Update("communities").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})

	if patch.Overview != nil {
		query = query.Set("overview", *patch.Overview)
	}
	if patch.Stage != nil {
		query = query.Set("stage", string(*patch.Stage))
	}
	if patch.Population != nil {
		query = query.Set("population", *patch.Population)
	}
	if patch.CommunityLife != nil {
		query = query.Set("community_life", *patch.CommunityLife)
	}
	if patch.HowToJoin != nil {
		query = query.Set("how_to_join", *patch.HowToJoin)
	}
	if patch.AIConfidence != nil {
		query = query.Set("ai_confidence", *patch.AIConfidence)
	}
	if patch.HeroImageURL != nil {
		query = query.Set("hero_image_url", *patch.HeroImageURL)
	}
	if patch.LastRefreshedAt != nil {
		query = query.Set("last_refreshed_at", *patch.LastRefreshedAt)
	}
	if patch.RefreshCount != nil {
		query = query.Set("refresh_count", *patch.RefreshCount)
	}

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("update community: %w", err)
	}
	return nil
}

// GetCommunityByID returns one community or nil when absent.
func (r *PostgresRepository) GetCommunityByID(ctx context.Context, id string) (*domain.Community, error) {
	return r.getCommunity(ctx, sq.Eq{"id": id})
}

// GetCommunityBySlug returns one community or nil when absent.
func (r *PostgresRepository) GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	return r.getCommunity(ctx, sq.Eq{"slug": slug})
}

func (r *PostgresRepository) getCommunity(ctx context.Context, pred any) (*domain.Community, error) {
	row := r.sb.Select(communityColumns...).
		From("communities").
		Where(pred).
		RunWith(r.db).
		QueryRowContext(ctx)

	c, err := scanCommunity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select community: %w", err)
	}
	return &c, nil
}

// ListPublished returns all published communities ordered by score.
func (r *PostgresRepository) ListPublished(ctx context.Context) ([]domain.Community, error) {
	rows, err := r.sb.Select(communityColumns...).
		From("communities").
		Where(sq.Eq{"is_published": true}).
		OrderBy("solarpunk_score DESC").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select published: %w", err)
	}
	defer rows.Close()

	var out []domain.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListKnownSlugs returns the slugs of all published communities.
func (r *PostgresRepository) ListKnownSlugs(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, r.sb.Select("slug").From("communities").Where(sq.Eq{"is_published": true}))
}

// ListKnownNames returns the names of all communities.
func (r *PostgresRepository) ListKnownNames(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, r.sb.Select("name").From("communities"))
}

func (r *PostgresRepository) listStrings(ctx context.Context, query sq.SelectBuilder) ([]string, error) {
	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select strings: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan string: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountCommunities counts every community regardless of publish state.
func (r *PostgresRepository) CountCommunities(ctx context.Context) (int, error) {
	var count int
	err := r.sb.Select("count(*)").From("communities").
		RunWith(r.db).QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count communities: %w", err)
	}
	return count, nil
}

// AddTags appends tags to a community.
func (r *PostgresRepository) AddTags(ctx context.Context, communityID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	query := r.sb.Insert("community_tags").Columns("id", "community_id", "tag")
	for _, tag := range tags {
		query = query.Values(uuid.NewString(), communityID, tag)
	}
	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert tags: %w", err)
	}
	return nil
}

// AddLinks appends links to a community.
func (r *PostgresRepository) AddLinks(ctx context.Context, communityID string, links []domain.Link) error {
	if len(links) == 0 {
		return nil
	}
	query := r.sb.Insert("community_links").Columns("id", "community_id", "url", "title", "type")
	for _, link := range links {
		query = query.Values(uuid.NewString(), communityID, link.URL, nullStr(link.Title), nullStr(link.Type))
	}
	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert links: %w", err)
	}
	return nil
}

// AddImages appends image records to a community.
func (r *PostgresRepository) AddImages(ctx context.Context, communityID string, imgs []domain.Image) error {
	if len(imgs) == 0 {
		return nil
	}
	query := r.sb.Insert("community_images").
		Columns("id", "community_id", "image_url", "alt_text", "source_url", "is_hero", "sort_order", "created_at")
	now := time.Now().UTC()
	for _, img := range imgs {
		query = query.Values(uuid.NewString(), communityID, img.ImageURL, nullStr(img.AltText), nullStr(img.SourceURL), img.IsHero, img.SortOrder, now)
	}
	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert images: %w", err)
	}
	return nil
}

// ImagesByCommunityID lists a community's images in sort order.
func (r *PostgresRepository) ImagesByCommunityID(ctx context.Context, communityID string) ([]domain.Image, error) {
	rows, err := r.sb.Select("id", "community_id", "image_url", "alt_text", "source_url", "is_hero", "sort_order", "created_at").
		From("community_images").
		Where(sq.Eq{"community_id": communityID}).
		OrderBy("sort_order ASC").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select images: %w", err)
	}
	defer rows.Close()

	var out []domain.Image
	for rows.Next() {
		var img domain.Image
		var alt, source sql.NullString
		if err := rows.Scan(&img.ID, &img.CommunityID, &img.ImageURL, &alt, &source, &img.IsHero, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.AltText = alt.String
		img.SourceURL = source.String
		out = append(out, img)
	}
	return out, rows.Err()
}

// WriteDiscoveryRun appends one discovery audit record.
func (r *PostgresRepository) WriteDiscoveryRun(ctx context.Context, run domain.DiscoveryRun) error {
	errs, err := marshalErrors(run.Errors)
	if err != nil {
		return err
	}
	_, err = r.sb.Insert("discovery_runs").
		Columns("id", "run_date", "queries_executed", "results_found", "duplicates_skipped", "new_communities_added", "errors", "status").
		Values(uuid.NewString(), run.RunDate, run.QueriesExecuted, run.ResultsFound, run.DuplicatesSkipped, run.NewCommunitiesAdded, errs, run.Status).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert discovery run: %w", err)
	}
	return nil
}

// WriteRefreshRun appends one refresh audit record.
func (r *PostgresRepository) WriteRefreshRun(ctx context.Context, run domain.RefreshRun) error {
	errs, err := marshalErrors(run.Errors)
	if err != nil {
		return err
	}
	_, err = r.sb.Insert("refresh_runs").
		Columns("id", "run_date", "communities_checked", "content_changes_detected", "stage_changes", "dormant_flagged", "errors", "status").
		Values(uuid.NewString(), run.RunDate, run.CommunitiesChecked, run.ContentChangesDetected, run.StageChanges, run.DormantFlagged, errs, run.Status).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert refresh run: %w", err)
	}
	return nil
}

// AddSubscriber stores one email, tolerating re-subscription.
func (r *PostgresRepository) AddSubscriber(ctx context.Context, email string) (domain.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	sub := domain.Subscriber{ID: uuid.NewString(), Email: email}
	_, err := r.sb.Insert("email_subscribers").
		Columns("id", "email").
		Values(sub.ID, sub.Email).
		Suffix("ON CONFLICT (email) DO NOTHING").
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}

	row := r.sb.Select("id", "email").
		From("email_subscribers").
		Where(sq.Eq{"email": email}).
		RunWith(r.db).QueryRowContext(ctx)
	if err := row.Scan(&sub.ID, &sub.Email); err != nil {
		return domain.Subscriber{}, fmt.Errorf("select subscriber: %w", err)
	}
	return sub, nil
}

// ListSubscriberEmails returns every subscriber address.
func (r *PostgresRepository) ListSubscriberEmails(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, r.sb.Select("email").From("email_subscribers"))
}

// TrackVisit appends one page-visit row.
func (r *PostgresRepository) TrackVisit(ctx context.Context, path string) error {
	_, err := r.sb.Insert("page_visits").
		Columns("id", "path", "visited_at").
		Values(uuid.NewString(), path, time.Now().UTC()).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// VisitStats returns the total visit count and a monthly average since
// the first recorded visit.
func (r *PostgresRepository) VisitStats(ctx context.Context) (int, int, error) {
	var total int
	var earliest sql.NullTime
	err := r.sb.Select("count(*)", "min(visited_at)").
		From("page_visits").
		RunWith(r.db).QueryRowContext(ctx).Scan(&total, &earliest)
	if err != nil {
		return 0, 0, fmt.Errorf("visit stats: %w", err)
	}
	if total == 0 || !earliest.Valid {
		return 0, 0, nil
	}

	now := time.Now().UTC()
	months := (now.Year()-earliest.Time.Year())*12 + int(now.Month()) - int(earliest.Time.Month()) + 1
	if months < 1 {
		months = 1
	}
	return total, total / months, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommunity(row rowScanner) (domain.Community, error) {
	var c domain.Community
	var tagline, overview, country, region, stage, website, hero, life, join, land sql.NullString
	var lat, lng sql.NullFloat64
	var population, founded sql.NullInt64
	var techStack []byte
	var researched, refreshed sql.NullTime

	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &tagline, &overview,
		&country, &region, &lat, &lng,
		&stage, &population, &founded, &website, &hero,
		&c.SolarpunkScore, &c.Scores.Energy, &c.Scores.Land, &c.Scores.Tech,
		&c.Scores.Governance, &c.Scores.Community, &c.Scores.Circularity,
		&techStack, &life, &join, &land,
		&c.AIConfidence, &c.SourcesCount, &c.RefreshCount,
		&c.IsPublished, &c.IsFormingDisclaimer,
		&researched, &refreshed, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Community{}, err
	}

	c.Tagline = tagline.String
	c.Overview = overview.String
	c.LocationCountry = country.String
	c.LocationRegion = region.String
	c.Stage = domain.Stage(stage.String)
	c.WebsiteURL = website.String
	c.HeroImageURL = hero.String
	c.CommunityLife = life.String
	c.HowToJoin = join.String
	c.LandDescription = land.String
	if lat.Valid {
		c.LocationLat = &lat.Float64
	}
	if lng.Valid {
		c.LocationLng = &lng.Float64
	}
	if population.Valid {
		p := int(population.Int64)
		c.Population = &p
	}
	if founded.Valid {
		f := int(founded.Int64)
		c.FoundedYear = &f
	}
	if len(techStack) > 0 {
		if err := json.Unmarshal(techStack, &c.TechStack); err != nil {
			return domain.Community{}, fmt.Errorf("unmarshal tech stack: %w", err)
		}
	}
	if researched.Valid {
		t := researched.Time
		c.LastResearchedAt = &t
	}
	if refreshed.Valid {
		t := refreshed.Time
		c.LastRefreshedAt = &t
	}
	return c, nil
}

func marshalErrors(errs []string) ([]byte, error) {
	if len(errs) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(errs)
	if err != nil {
		return nil, fmt.Errorf("marshal errors: %w", err)
	}
	return raw, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
