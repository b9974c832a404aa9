// Package instagram finds Instagram Reels through SerpApi Google search.
// When Google returns no short-video carousel, the generic video results are
// used instead and each result is tagged by its URL's domain.
package instagram

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	infraerrors "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/errors"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform"
)

const (
	// Name is the adapter name recorded as a video's source.
	Name = "instagram"
	// EnvAPIKey holds the SerpApi key.
	EnvAPIKey = "SERPAPI_API_KEY"

	defaultBaseURL = "https://serpapi.com"

	// noResults is the SerpApi error text for an empty result page.
	noResults = "hasn't returned any results"
)

// Client is an Instagram Reels search adapter.
type Client struct {
	*platform.Base
}

var _ platform.Client = (*Client)(nil)

// NewClient creates an Instagram adapter.
func NewClient(apiKey string, opts ...platform.Option) *Client {
	cfg := platform.Config{
		Name:     Name,
		Platform: domain.PlatformInstagram,
		APIKey:   apiKey,
		EnvVar:   EnvAPIKey,
		BaseURL:  defaultBaseURL,
		IsQuota:  isQuota,
	}
	cfg.Apply(opts...)

	return &Client{Base: platform.NewBase(cfg)}
}

func isQuota(e *infraerrors.HTTPError) bool {
	return isQuotaMessage(e.Message)
}

func isQuotaMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "run out of searches") ||
		strings.Contains(msg, "plan searches limit")
}

// Search asks Google for Reels matching keyword.
func (c *Client) Search(ctx context.Context, keyword string, filters domain.SearchFilters) ([]domain.RawItem, error) {
	const op = "instagram.search"

	if err := c.CheckCredential(op); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", keyword+" site:instagram.com/reel")
	q.Set("num", strconv.Itoa(filters.MaxResults))
	q.Set("api_key", c.APIKey())
	if region := c.Region(); region != "" {
		q.Set("gl", strings.ToLower(region))
	}

	var resp serpResponse
	if err := c.GetJSON(ctx, op, c.BaseURL()+"/search.json?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		switch {
		case strings.Contains(resp.Error, noResults):
			return []domain.RawItem{}, nil
		case isQuotaMessage(resp.Error):
			return nil, domain.Errorf(domain.KindQuotaExceeded, op, "%s", resp.Error).WithPlatform(domain.PlatformInstagram)
		default:
			return nil, domain.Errorf(domain.KindPermanent, op, "%s", resp.Error).WithPlatform(domain.PlatformInstagram)
		}
	}

	var items []domain.RawItem
	if len(resp.ShortVideosResults) > 0 {
		items = convert(resp.ShortVideosResults, func(string) domain.Platform { return domain.PlatformInstagram })
	} else {
		c.Logger().Debug("No short video results, falling back to video results",
			logger.String("keyword", keyword),
			logger.Int("video_results", len(resp.VideoResults)),
		)
		items = convert(resp.VideoResults, domain.PlatformFromURL)
	}

	if len(items) > filters.MaxResults {
		items = items[:filters.MaxResults]
	}

	return platform.KeepShortForm(items, false), nil
}

func convert(results []serpVideo, tag func(string) domain.Platform) []domain.RawItem {
	items := make([]domain.RawItem, 0, len(results))
	for _, r := range results {
		if r.Link == "" {
			continue
		}

		item := domain.RawItem{
			Title:        r.Title,
			URL:          r.Link,
			ThumbnailURL: r.Thumbnail,
			Platform:     tag(r.Link),
			CreatorName:  r.creator(),
			Description:  r.Snippet,
			Tags:         platform.Hashtags(r.Title + " " + r.Snippet),
		}
		if secs, ok := platform.ParseClockDuration(r.Duration); ok {
			item.DurationSeconds = &secs
		}

		items = append(items, item)
	}
	return items
}
