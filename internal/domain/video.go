package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ShortFormMaxSeconds is the upper bound for a short-form video.
const ShortFormMaxSeconds = 60

// RawItem is what a platform adapter extracts from its API response before
// canonicalization. Optional values are nil when the platform omits them.
type RawItem struct {
	Title           string
	URL             string
	ThumbnailURL    string
	Platform        Platform
	PublishedAt     *time.Time
	DurationSeconds *int
	CreatorName     string
	CreatorID       string
	ViewCount       *int64
	LikeCount       *int64
	CommentCount    *int64
	Description     string
	Tags            []string
}

// NormalizedTrendVideo is the canonical cross-platform record.
type NormalizedTrendVideo struct {
	ID              string     `db:"id"               json:"id"`
	Title           string     `db:"title"            json:"title"`
	Platform        Platform   `db:"platform"         json:"platform"`
	ThumbnailURL    string     `db:"thumbnail_url"    json:"thumbnailUrl"`
	VideoURL        string     `db:"video_url"        json:"videoUrl"`
	PublishedAt     *time.Time `db:"published_at"     json:"publishedAt,omitempty"`
	DurationSeconds *int       `db:"duration_seconds" json:"durationSeconds,omitempty"`
	CreatorName     *string    `db:"creator_name"     json:"creatorName,omitempty"`
	CreatorID       *string    `db:"creator_id"       json:"creatorId,omitempty"`
	ViewCount       *int64     `db:"view_count"       json:"viewCount,omitempty"`
	LikeCount       *int64     `db:"like_count"       json:"likeCount,omitempty"`
	CommentCount    *int64     `db:"comment_count"    json:"commentCount,omitempty"`
	Description     *string    `db:"description"      json:"description,omitempty"`
	Tags            []string   `db:"-"                json:"tags,omitempty"`
	CollectedAt     time.Time  `db:"collected_at"     json:"collectedAt"`
	Source          string     `db:"source"           json:"source"`
}

// CanonicalURL trims and lowercases a video URL. Two URLs that canonicalize
// equal identify the same video within a batch.
func CanonicalURL(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// VideoID is the deterministic id of a canonical URL: hex SHA-256.
func VideoID(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// IsShortForm reports whether the duration is known and within the short-form bound.
func (v *NormalizedTrendVideo) IsShortForm() bool {
	return v.DurationSeconds != nil && *v.DurationSeconds <= ShortFormMaxSeconds
}

// CollectionError records one adapter's failure inside a collection result.
type CollectionError struct {
	Platform Platform  `json:"platform"`
	Source   string    `json:"source"`
	Error    string    `json:"error"`
	Kind     ErrorKind `json:"kind"`
	Hint     string    `json:"hint,omitempty"`
}

// TrendCollectionResult is the immutable outcome of one collection run.
type TrendCollectionResult struct {
	Keyword     string                 `json:"keyword"`
	TotalVideos int                    `json:"totalVideos"`
	Videos      []NormalizedTrendVideo `json:"videos"`
	Breakdown   map[Platform]int       `json:"breakdown"`
	Errors      []CollectionError      `json:"errors,omitempty"`
	CollectedAt time.Time              `json:"collectedAt"`
}

// AllFailed reports a run where every adapter erred and nothing was collected.
func (r *TrendCollectionResult) AllFailed() bool {
	return r.TotalVideos == 0 && len(r.Errors) > 0
}
