// Package tiktok searches TikTok videos through a RapidAPI TikTok scraper.
package tiktok

import (
	"context"
	"fmt"
	"net/http"
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
	Name = "tiktok"
	// EnvAPIKey holds the RapidAPI key.
	EnvAPIKey = "TIKTOK_API_KEY"

	defaultHost = "tiktok-scraper7.p.rapidapi.com"
)

// Client is a TikTok search adapter.
type Client struct {
	*platform.Base
	host string
}

var _ platform.Client = (*Client)(nil)

// NewClient creates a TikTok adapter. host is the RapidAPI host header; empty
// uses the default scraper host.
func NewClient(apiKey, host string, opts ...platform.Option) *Client {
	if host == "" {
		host = defaultHost
	}

	cfg := platform.Config{
		Name:     Name,
		Platform: domain.PlatformTikTok,
		APIKey:   apiKey,
		EnvVar:   EnvAPIKey,
		BaseURL:  "https://" + host,
		IsQuota:  isQuota,
	}
	cfg.Apply(opts...)

	return &Client{Base: platform.NewBase(cfg), host: host}
}

// isQuota matches RapidAPI plan exhaustion. A bare 429 is a per-second
// throttle and stays transient.
func isQuota(e *infraerrors.HTTPError) bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "exceeded the monthly quota") ||
		strings.Contains(msg, "exceeded the daily quota") ||
		strings.Contains(msg, "not subscribed")
}

// Search queries feed/search and keeps videos of at most 60 seconds.
func (c *Client) Search(ctx context.Context, keyword string, filters domain.SearchFilters) ([]domain.RawItem, error) {
	const op = "tiktok.search"

	if err := c.CheckCredential(op); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("keywords", keyword)
	q.Set("count", strconv.Itoa(filters.MaxResults))
	q.Set("cursor", "0")
	q.Set("publish_time", "0")
	q.Set("sort_type", "0")
	if region := c.Region(); region != "" {
		q.Set("region", region)
	}

	header := http.Header{}
	header.Set("X-RapidAPI-Key", c.APIKey())
	header.Set("X-RapidAPI-Host", c.host)

	var resp searchResponse
	if err := c.GetJSON(ctx, op, c.BaseURL()+"/feed/search?"+q.Encode(), header, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, domain.Errorf(domain.KindPermanent, op, "api code %d: %s", resp.Code, resp.Msg).
			WithPlatform(domain.PlatformTikTok)
	}

	items := make([]domain.RawItem, 0, len(resp.Data.Videos))
	for _, v := range resp.Data.Videos {
		if v.id() == "" {
			continue
		}
		items = append(items, toRawItem(v))
	}

	kept := platform.KeepShortForm(items, false)
	c.Logger().Debug("TikTok search complete",
		logger.String("keyword", keyword),
		logger.Int("results", len(resp.Data.Videos)),
		logger.Int("short_form", len(kept)),
	)

	return kept, nil
}

func toRawItem(v video) domain.RawItem {
	author := v.Author.UniqueID
	if author == "" {
		author = v.Author.ID
	}

	thumb := v.OriginCover
	if thumb == "" {
		thumb = v.Cover
	}

	item := domain.RawItem{
		Title:        v.Title,
		URL:          fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", author, v.id()),
		ThumbnailURL: thumb,
		Platform:     domain.PlatformTikTok,
		CreatorName:  v.Author.Nickname,
		CreatorID:    v.Author.UniqueID,
		ViewCount:    v.PlayCount,
		LikeCount:    v.DiggCount,
		CommentCount: v.CommentCount,
		Description:  v.Title,
		Tags:         platform.Hashtags(v.Title),
	}

	if v.Duration > 0 {
		item.DurationSeconds = platform.Ptr(v.Duration)
	}
	if v.CreateTime > 0 {
		item.PublishedAt = platform.Ptr(time.Unix(v.CreateTime, 0).UTC())
	}

	return item
}
