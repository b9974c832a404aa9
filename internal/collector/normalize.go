package collector

import (
	"strings"
	"time"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// Normalize converts an adapter item into the canonical record. It reports
// false for items without a URL, which cannot be identified.
func Normalize(raw domain.RawItem, source string, fallback domain.Platform, collectedAt time.Time) (domain.NormalizedTrendVideo, bool) {
	canonical := domain.CanonicalURL(raw.URL)
	if canonical == "" {
		return domain.NormalizedTrendVideo{}, false
	}

	p := raw.Platform
	if p == "" {
		p = fallback
	}

	return domain.NormalizedTrendVideo{
		ID:              domain.VideoID(canonical),
		Title:           strings.TrimSpace(raw.Title),
		Platform:        p,
		ThumbnailURL:    strings.TrimSpace(raw.ThumbnailURL),
		VideoURL:        canonical,
		PublishedAt:     raw.PublishedAt,
		DurationSeconds: raw.DurationSeconds,
		CreatorName:     optional(raw.CreatorName),
		CreatorID:       optional(raw.CreatorID),
		ViewCount:       raw.ViewCount,
		LikeCount:       raw.LikeCount,
		CommentCount:    raw.CommentCount,
		Description:     optional(raw.Description),
		Tags:            raw.Tags,
		CollectedAt:     collectedAt,
		Source:          source,
	}, true
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
