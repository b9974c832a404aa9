// Package youtube searches YouTube Shorts through the YouTube Data API v3.
package youtube

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	infraerrors "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/errors"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform"
)

const (
	// Name is the adapter name recorded as a video's source.
	Name = "youtube"
	// EnvAPIKey holds the Data API key.
	EnvAPIKey = "YOUTUBE_API_KEY"

	defaultBaseURL = "https://www.googleapis.com"
)

// Client is a YouTube Data API search adapter.
type Client struct {
	*platform.Base
}

var _ platform.Client = (*Client)(nil)

// NewClient creates a YouTube adapter. An empty apiKey is allowed; Search
// then fails with a MissingCredential error.
func NewClient(apiKey string, opts ...platform.Option) *Client {
	cfg := platform.Config{
		Name:     Name,
		Platform: domain.PlatformYouTube,
		APIKey:   apiKey,
		EnvVar:   EnvAPIKey,
		BaseURL:  defaultBaseURL,
		IsQuota:  isQuota,
	}
	cfg.Apply(opts...)

	return &Client{Base: platform.NewBase(cfg)}
}

// isQuota matches the Data API quota reasons. rateLimitExceeded is a
// short-term throttle and stays transient.
func isQuota(e *infraerrors.HTTPError) bool {
	switch e.Reason {
	case "quotaExceeded", "dailyLimitExceeded":
		return true
	default:
		return false
	}
}

// Search runs search.list for short videos, then videos.list for durations
// and statistics, and keeps only results of at most 60 seconds.
func (c *Client) Search(ctx context.Context, keyword string, filters domain.SearchFilters) ([]domain.RawItem, error) {
	const op = "youtube.search"

	if err := c.CheckCredential(op); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", keyword)
	q.Set("type", "video")
	q.Set("videoDuration", "short")
	q.Set("order", "viewCount")
	q.Set("maxResults", strconv.Itoa(filters.MaxResults))
	q.Set("key", c.APIKey())
	if region := c.Region(); region != "" {
		q.Set("regionCode", region)
	}
	if !filters.DateFilter.PublishedAfter.IsZero() {
		q.Set("publishedAfter", filters.DateFilter.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if !filters.DateFilter.PublishedBefore.IsZero() {
		q.Set("publishedBefore", filters.DateFilter.PublishedBefore.UTC().Format(time.RFC3339))
	}

	var search searchResponse
	if err := c.GetJSON(ctx, op, c.BaseURL()+"/youtube/v3/search?"+q.Encode(), nil, &search); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return []domain.RawItem{}, nil
	}

	details, err := c.videoDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.RawItem, 0, len(ids))
	for _, item := range search.Items {
		v, ok := details[item.ID.VideoID]
		if !ok {
			continue
		}
		items = append(items, toRawItem(item.ID.VideoID, item.Snippet, v))
	}

	kept := platform.KeepShortForm(items, true)
	c.Logger().Debug("YouTube search complete",
		logger.String("keyword", keyword),
		logger.Int("results", len(search.Items)),
		logger.Int("short_form", len(kept)),
	)

	return kept, nil
}

func (c *Client) videoDetails(ctx context.Context, ids []string) (map[string]videoItem, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics,contentDetails")
	q.Set("id", strings.Join(ids, ","))
	q.Set("key", c.APIKey())

	var resp videosResponse
	if err := c.GetJSON(ctx, "youtube.videos", c.BaseURL()+"/youtube/v3/videos?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]videoItem, len(resp.Items))
	for _, v := range resp.Items {
		out[v.ID] = v
	}
	return out, nil
}

func toRawItem(id string, s snippet, v videoItem) domain.RawItem {
	item := domain.RawItem{
		Title:        s.Title,
		URL:          "https://www.youtube.com/shorts/" + id,
		ThumbnailURL: s.Thumbnails.best(),
		Platform:     domain.PlatformYouTube,
		PublishedAt:  platform.ParseTime(s.PublishedAt),
		CreatorName:  s.ChannelTitle,
		CreatorID:    s.ChannelID,
		ViewCount:    platform.ParseCount(v.Statistics.ViewCount),
		LikeCount:    platform.ParseCount(v.Statistics.LikeCount),
		CommentCount: platform.ParseCount(v.Statistics.CommentCount),
		Description:  s.Description,
		Tags:         v.Snippet.Tags,
	}

	if secs, ok := platform.ParseISO8601Duration(v.ContentDetails.Duration); ok {
		item.DurationSeconds = &secs
	}
	if len(item.Tags) == 0 {
		item.Tags = platform.Hashtags(s.Title + " " + s.Description)
	}

	return item
}
