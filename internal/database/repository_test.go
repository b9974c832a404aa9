package database_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/database"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

func newRepo(t *testing.T) (*database.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return database.NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestRepository_SaveVideos(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	views := int64(10)
	collected := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	videos := []domain.NormalizedTrendVideo{
		{ID: "a", Title: "one", Platform: domain.PlatformYouTube, VideoURL: "u1", ViewCount: &views, CollectedAt: collected, Source: "youtube"},
		{ID: "b", Title: "two", Platform: domain.PlatformTikTok, VideoURL: "u2", Tags: []string{"buldak"}, CollectedAt: collected, Source: "tiktok"},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO trend_videos")
	prep.ExpectExec().
		WithArgs("a", "ramen", "one", "YouTube", "", "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), collected, "youtube").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveVideos(context.Background(), "ramen", videos))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveVideos_RollsBackOnError(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO trend_videos").ExpectExec().WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.SaveVideos(context.Background(), "ramen", []domain.NormalizedTrendVideo{{ID: "a"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveVideos_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	require.NoError(t, repo.SaveVideos(context.Background(), "ramen", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListVideos(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	collected := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "keyword", "title", "platform", "thumbnail_url", "video_url", "published_at",
		"duration_seconds", "creator_name", "creator_id", "view_count", "like_count",
		"comment_count", "description", "tags", "collected_at", "source",
	}
	rows := sqlmock.NewRows(cols).
		AddRow("a", "ramen", "one", "YouTube", "", "u1", nil, 30, "chef", nil, 100, nil, nil, nil, "{buldak,spicy}", collected, "youtube")

	mock.ExpectQuery(regexp.QuoteMeta("FROM trend_videos")).
		WithArgs("ramen", "", database.DefaultListLimit).
		WillReturnRows(rows)

	videos, err := repo.ListVideos(context.Background(), database.VideoFilter{Keyword: "ramen"})
	require.NoError(t, err)
	require.Len(t, videos, 1)

	v := videos[0]
	assert.Equal(t, domain.PlatformYouTube, v.Platform)
	assert.Equal(t, 30, *v.DurationSeconds)
	assert.Equal(t, "chef", *v.CreatorName)
	assert.Nil(t, v.CreatorID)
	assert.Equal(t, int64(100), *v.ViewCount)
	assert.Equal(t, []string{"buldak", "spicy"}, v.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListVideos_CapsLimit(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM trend_videos").
		WithArgs("ramen", "TikTok", database.MaxListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ListVideos(context.Background(), database.VideoFilter{
		Keyword: "ramen", Platform: domain.PlatformTikTok, Limit: 10_000,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Analysis(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return now })

	result := domain.AnalysisResult{TrendName: "fire noodle", ViralScore: 80, BrandRelevance: 90}

	mock.ExpectExec("INSERT INTO trend_analyses").
		WithArgs(sqlmock.AnyArg(), "buldak", "anthropic", "claude-sonnet-4-5", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	stored, err := repo.SaveAnalysis(context.Background(), "buldak", "anthropic", "claude-sonnet-4-5", result)
	require.NoError(t, err)
	assert.Len(t, stored.ID, 36)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)

	mock.ExpectQuery("FROM trend_analyses").
		WithArgs(stored.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "keyword", "provider", "model", "result", "created_at"}).
			AddRow(stored.ID, "buldak", "anthropic", "claude-sonnet-4-5", encoded, now))

	got, err := repo.GetAnalysis(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, result, got.Result)
	assert.Equal(t, "buldak", got.Keyword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetAnalysis_NotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	id := "7f1d3c2a-0000-4000-8000-000000000001"

	mock.ExpectQuery("FROM trend_analyses").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAnalysis(context.Background(), id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = repo.GetAnalysis(context.Background(), "not-a-uuid")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordUsage(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	rec := domain.UsageRecord{
		ID: "u1", Provider: "openai", Model: "gpt-4o-mini",
		PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15,
		Duration: 1500 * time.Millisecond, Attempts: 2, Success: true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO ai_usage").
		WithArgs("u1", "openai", "gpt-4o-mini", int64(10), int64(5), int64(15), int64(1500), 2, true, false, nil, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordUsage(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}
