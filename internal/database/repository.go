package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// DefaultListLimit and MaxListLimit bound ListVideos.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Repository stores trend data.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates a Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Ping checks connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const upsertVideoQuery = `
	INSERT INTO trend_videos (
		id, keyword, title, platform, thumbnail_url, video_url, published_at,
		duration_seconds, creator_name, creator_id, view_count, like_count,
		comment_count, description, tags, collected_at, source
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (keyword, id) DO UPDATE SET
		title = EXCLUDED.title,
		thumbnail_url = EXCLUDED.thumbnail_url,
		view_count = EXCLUDED.view_count,
		like_count = EXCLUDED.like_count,
		comment_count = EXCLUDED.comment_count,
		tags = EXCLUDED.tags,
		collected_at = EXCLUDED.collected_at`

// SaveVideos upserts a collection batch under keyword in one transaction.
// Re-collecting a video refreshes its counters.
func (r *Repository) SaveVideos(ctx context.Context, keyword string, videos []domain.NormalizedTrendVideo) error {
	if len(videos) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, upsertVideoQuery)
	if err != nil {
		return fmt.Errorf("prepare video upsert: %w", err)
	}
	defer stmt.Close()

	for i := range videos {
		v := &videos[i]
		if _, execErr := stmt.ExecContext(ctx,
			v.ID, keyword, v.Title, string(v.Platform), v.ThumbnailURL, v.VideoURL, v.PublishedAt,
			v.DurationSeconds, v.CreatorName, v.CreatorID, v.ViewCount, v.LikeCount,
			v.CommentCount, v.Description, pq.Array(nonNil(v.Tags)), v.CollectedAt, v.Source,
		); execErr != nil {
			return fmt.Errorf("upsert video %s: %w", v.ID, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit videos: %w", commitErr)
	}
	return nil
}

type videoRow struct {
	domain.NormalizedTrendVideo
	Keyword string         `db:"keyword"`
	Tags    pq.StringArray `db:"tags"`
}

// VideoFilter selects stored videos.
type VideoFilter struct {
	Keyword  string
	Platform domain.Platform
	Limit    int
}

// ListVideos returns the most recently collected videos for a keyword.
func (r *Repository) ListVideos(ctx context.Context, f VideoFilter) ([]domain.NormalizedTrendVideo, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	f.Limit = min(f.Limit, MaxListLimit)

	query := `
		SELECT id, keyword, title, platform, thumbnail_url, video_url, published_at,
			duration_seconds, creator_name, creator_id, view_count, like_count,
			comment_count, description, tags, collected_at, source
		FROM trend_videos
		WHERE keyword = $1 AND ($2 = '' OR platform = $2)
		ORDER BY collected_at DESC, view_count DESC NULLS LAST
		LIMIT $3`

	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, query, f.Keyword, string(f.Platform), f.Limit); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos := make([]domain.NormalizedTrendVideo, len(rows))
	for i, row := range rows {
		videos[i] = row.NormalizedTrendVideo
		if len(row.Tags) > 0 {
			videos[i].Tags = []string(row.Tags)
		}
	}
	return videos, nil
}

// SaveAnalysis stores an analysis and returns it with its id.
func (r *Repository) SaveAnalysis(ctx context.Context, keyword, provider, model string, result domain.AnalysisResult) (*domain.StoredAnalysis, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}

	stored := &domain.StoredAnalysis{
		ID:        uuid.NewString(),
		Keyword:   keyword,
		Provider:  provider,
		Model:     model,
		Result:    result,
		CreatedAt: r.now().UTC(),
	}

	query := `
		INSERT INTO trend_analyses (id, keyword, provider, model, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, execErr := r.db.ExecContext(ctx, query,
		stored.ID, keyword, provider, model, encoded, stored.CreatedAt,
	); execErr != nil {
		return nil, fmt.Errorf("insert analysis: %w", execErr)
	}

	return stored, nil
}

type analysisRow struct {
	ID        string    `db:"id"`
	Keyword   string    `db:"keyword"`
	Provider  string    `db:"provider"`
	Model     string    `db:"model"`
	Result    []byte    `db:"result"`
	CreatedAt time.Time `db:"created_at"`
}

// GetAnalysis returns a stored analysis. A missing or malformed id is
// reported as domain.ErrNotFound.
func (r *Repository) GetAnalysis(ctx context.Context, id string) (*domain.StoredAnalysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("analysis %q: %w", id, domain.ErrNotFound)
	}

	var row analysisRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, keyword, provider, model, result, created_at
		FROM trend_analyses
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	stored := &domain.StoredAnalysis{
		ID:        row.ID,
		Keyword:   row.Keyword,
		Provider:  row.Provider,
		Model:     row.Model,
		CreatedAt: row.CreatedAt,
	}
	if unmarshalErr := json.Unmarshal(row.Result, &stored.Result); unmarshalErr != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", id, unmarshalErr)
	}

	return stored, nil
}

// RecordUsage stores one provider usage record.
func (r *Repository) RecordUsage(ctx context.Context, rec domain.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}

	var errText *string
	if rec.Error != "" {
		errText = &rec.Error
	}

	query := `
		INSERT INTO ai_usage (
			id, provider, model, prompt_tokens, completion_tokens, total_tokens,
			duration_ms, attempts, success, cache_hit, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Provider, rec.Model, rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.Duration.Milliseconds(), rec.Attempts, rec.Success, rec.CacheHit, errText, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
