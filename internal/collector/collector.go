// Package collector fans a keyword search out to the platform adapters and
// merges their results into one deduplicated batch.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/dedup"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/telemetry"
)

// DefaultAdapterTimeout bounds one adapter search including its retries.
const DefaultAdapterTimeout = 30 * time.Second

// Config configures a Collector.
type Config struct {
	// Workers bounds concurrent adapter searches. Zero runs every selected
	// adapter at once.
	Workers        int
	AdapterTimeout time.Duration
	Dedup          dedup.Options
}

// Collector runs collections. It is safe for concurrent use.
type Collector struct {
	clients map[domain.Platform]platform.Client
	cfg     Config
	log     logger.Logger
	metrics *telemetry.Provider
	now     func() time.Time
}

// New registers clients by platform. A later client for the same platform
// replaces an earlier one.
func New(clients []platform.Client, cfg Config, log logger.Logger, metrics *telemetry.Provider) *Collector {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = DefaultAdapterTimeout
	}
	if !cfg.Dedup.ByURL && !cfg.Dedup.ByTitle {
		cfg.Dedup = dedup.DefaultOptions()
	}
	if log == nil {
		log = logger.NewNop()
	}

	byPlatform := make(map[domain.Platform]platform.Client, len(clients))
	for _, c := range clients {
		byPlatform[c.Platform()] = c
	}

	return &Collector{
		clients: byPlatform,
		cfg:     cfg,
		log:     log.With(logger.Component("collector")),
		metrics: metrics,
		now:     time.Now,
	}
}

type outcome struct {
	source string
	items  []domain.RawItem
	err    error
}

// Collect searches every selected platform concurrently. Adapter failures
// are reported in the result's Errors and never abort the run; the returned
// error is only for invalid keyword or options.
func (c *Collector) Collect(ctx context.Context, keyword string, opts domain.CollectOptions) (*domain.TrendCollectionResult, error) {
	resolved, err := opts.Resolve(keyword)
	if err != nil {
		return nil, err
	}

	start := c.now()
	platforms := resolved.Platforms.Ordered()
	outcomes := c.fanOut(ctx, keyword, platforms, resolved.Filters)

	result := &domain.TrendCollectionResult{
		Keyword:     keyword,
		Videos:      []domain.NormalizedTrendVideo{},
		Breakdown:   map[domain.Platform]int{},
		CollectedAt: start.UTC(),
	}

	var normalized []domain.NormalizedTrendVideo
	for i, p := range platforms {
		out := outcomes[i]
		if out.err != nil {
			result.Errors = append(result.Errors, collectionError(p, out.source, out.err))
			c.log.Warn("Adapter search failed",
				logger.String("platform", string(p)),
				logger.String("source", out.source),
				logger.String("kind", string(domain.KindOf(out.err))),
				logger.Error(out.err),
			)
			continue
		}

		for _, raw := range out.items {
			v, ok := Normalize(raw, out.source, p, result.CollectedAt)
			if !ok || !resolved.Filters.DateFilter.Allows(v.PublishedAt) {
				continue
			}
			normalized = append(normalized, v)
		}
	}

	result.Videos = append(result.Videos, dedup.Dedupe(normalized, c.cfg.Dedup)...)
	result.TotalVideos = len(result.Videos)
	for _, v := range result.Videos {
		result.Breakdown[v.Platform]++
	}

	c.record(result, c.now().Sub(start))
	c.log.Info("Collection complete",
		logger.String("keyword", keyword),
		logger.Int("platforms", len(platforms)),
		logger.Int("raw", len(normalized)),
		logger.Int("videos", result.TotalVideos),
		logger.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// fanOut runs one task per platform and returns outcomes indexed like
// platforms, so aggregation order never depends on completion order.
func (c *Collector) fanOut(ctx context.Context, keyword string, platforms []domain.Platform, filters domain.SearchFilters) []outcome {
	outcomes := make([]outcome, len(platforms))

	workers := c.cfg.Workers
	if workers <= 0 || workers > len(platforms) {
		workers = len(platforms)
	}
	sem := make(chan struct{}, max(workers, 1))

	var wg sync.WaitGroup
	for i, p := range platforms {
		client, ok := c.clients[p]
		if !ok {
			outcomes[i] = outcome{err: domain.Errorf(domain.KindPermanent, "collect", "no adapter registered for %s", p).WithPlatform(p)}
			continue
		}
		outcomes[i].source = client.Name()

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i].err = domain.NewError(domain.KindTransient, "collect", ctx.Err()).WithPlatform(p)
				return
			}

			outcomes[i].items, outcomes[i].err = c.search(ctx, client, keyword, filters)
		}()
	}
	wg.Wait()

	return outcomes
}

func (c *Collector) search(ctx context.Context, client platform.Client, keyword string, filters domain.SearchFilters) (items []domain.RawItem, err error) {
	taskCtx, cancel := context.WithTimeout(ctx, c.cfg.AdapterTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = domain.Errorf(domain.KindPermanent, client.Name()+".search", "adapter panic: %v", r).WithPlatform(client.Platform())
		}
		c.metrics.RecordAdapter(string(client.Platform()), string(domain.KindOf(err)), time.Since(start))
	}()

	return client.Search(taskCtx, keyword, filters)
}

func collectionError(p domain.Platform, source string, err error) domain.CollectionError {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindPermanent
	}

	return domain.CollectionError{
		Platform: p,
		Source:   source,
		Error:    err.Error(),
		Kind:     kind,
		Hint:     domain.HintOf(err),
	}
}

func (c *Collector) record(result *domain.TrendCollectionResult, d time.Duration) {
	outcome := "complete"
	switch {
	case result.AllFailed():
		outcome = "failed"
	case len(result.Errors) > 0:
		outcome = "partial"
	}

	breakdown := make(map[string]int, len(result.Breakdown))
	for p, n := range result.Breakdown {
		breakdown[string(p)] = n
	}
	c.metrics.RecordCollection(outcome, d, breakdown)
}

// Platforms lists the registered adapters in collection order.
func (c *Collector) Platforms() []domain.Platform {
	set := make(domain.PlatformSet, len(c.clients))
	for p := range c.clients {
		set[p] = struct{}{}
	}
	return set.Ordered()
}
