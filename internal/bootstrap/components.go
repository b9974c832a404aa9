package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	infrahttp "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/http"
	infralogger "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/api"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/cache"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/collector"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/config"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/database"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/dedup"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/enricher"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform/instagram"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform/tiktok"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform/youtube"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/ratelimit"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/scheduler"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/telemetry"
)

// Components holds everything the server and CLI commands run on. DB,
// Repository, Redis and Scheduler are nil when not configured.
type Components struct {
	Config     *config.Config
	Logger     infralogger.Logger
	Metrics    *telemetry.Provider
	DB         *sqlx.DB
	Repository *database.Repository
	Redis      *goredis.Client
	Collector  *collector.Collector
	Enricher   *enricher.Enricher
	Limiter    *ratelimit.Limiter
	Scheduler  *scheduler.Scheduler
	Handler    *api.Handler
}

// NewComponents connects storage and builds the pipeline.
func NewComponents(ctx context.Context, cfg *config.Config, logger infralogger.Logger) (*Components, error) {
	c := &Components{
		Config:  cfg,
		Logger:  logger,
		Metrics: telemetry.NewProvider(),
	}

	db, repo, err := SetupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	c.DB, c.Repository = db, repo
	c.Redis = SetupRedis(ctx, cfg, logger)

	c.Collector = collector.New(
		platformClients(cfg, logger),
		collector.Config{
			Workers:        cfg.Collector.Workers,
			AdapterTimeout: cfg.Collector.AdapterTimeout,
			Dedup: dedup.Options{
				ByURL:                    true,
				ByTitle:                  cfg.Collector.DedupByTitle,
				TitleSimilarityThreshold: cfg.Collector.TitleSimilarityThreshold,
			},
		},
		logger,
		c.Metrics,
	)
	logger.Info("Collector initialized",
		infralogger.Int("platforms", len(c.Collector.Platforms())),
		infralogger.Int("workers", cfg.Collector.Workers),
	)

	enr, err := c.newEnricher()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Enricher = enr

	c.Limiter = c.newLimiter()

	if cfg.Scheduler.Enabled {
		sched, schedErr := c.newScheduler()
		if schedErr != nil {
			c.Close()
			return nil, fmt.Errorf("setup scheduler: %w", schedErr)
		}
		c.Scheduler = sched
	}

	var store api.Store
	if c.Repository != nil {
		store = c.Repository
	}
	c.Handler = api.NewHandler(c.Collector, c.Enricher, store, cfg.AI.TemperatureValue(), logger)

	return c, nil
}

func platformClients(cfg *config.Config, logger infralogger.Logger) []platform.Client {
	p := cfg.Platforms
	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: p.Timeout})

	common := []platform.Option{
		platform.WithHTTPClient(httpClient),
		platform.WithTimeout(p.Timeout),
		platform.WithRetry(p.MaxAttempts, p.RetryDelay),
		platform.WithRateLimit(p.RPS, 1),
		platform.WithRegion(p.Region),
		platform.WithLogger(logger),
	}
	with := func(baseURL string) []platform.Option {
		return append(append([]platform.Option{}, common...), platform.WithBaseURL(baseURL))
	}

	// Adapters without a key are still registered; their searches fail
	// with a hint naming the missing variable.
	return []platform.Client{
		youtube.NewClient(p.YouTube.APIKey, with(p.YouTube.BaseURL)...),
		tiktok.NewClient(p.TikTok.APIKey, p.TikTok.Host, with(p.TikTok.BaseURL)...),
		instagram.NewClient(p.Instagram.APIKey, with(p.Instagram.BaseURL)...),
	}
}

func (c *Components) newEnricher() (*enricher.Enricher, error) {
	ai := c.Config.AI

	def, err := enricher.ParseProviderConfig(ai.Provider, ai.Model)
	if err != nil {
		return nil, fmt.Errorf("ai provider: %w", err)
	}

	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: ai.Timeout})

	var providers []enricher.Provider
	if ai.Anthropic.APIKey != "" {
		providers = append(providers, enricher.NewAnthropicProvider(ai.Anthropic.APIKey, ai.Anthropic.BaseURL, httpClient, ai.Timeout))
	}
	if ai.OpenAI.APIKey != "" {
		providers = append(providers, enricher.NewOpenAIProvider(ai.OpenAI.APIKey, ai.OpenAI.BaseURL, httpClient, ai.Timeout))
	}
	if len(providers) == 0 {
		c.Logger.Warn("No AI provider credentials configured, enrichment calls will fail")
	}

	var usage enricher.UsageSink
	if c.Repository != nil {
		usage = c.Repository
	}

	c.Logger.Info("Enricher initialized",
		infralogger.String("provider", def.Provider()),
		infralogger.String("model", def.ModelName()),
		infralogger.Int("registered_providers", len(providers)),
	)

	return enricher.New(
		providers,
		cache.New(c.Redis, c.Logger, c.Metrics),
		usage,
		enricher.Config{
			RetryDelay: ai.RetryDelay,
			Default:    def,
			MaxRetries: ai.MaxRetries,
			CacheTTL:   ai.CacheTTL,
		},
		c.Logger,
		c.Metrics,
	), nil
}

func (c *Components) newLimiter() *ratelimit.Limiter {
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if c.Redis != nil {
		store = ratelimit.NewRedisStore(c.Redis)
	}
	return ratelimit.New(store, c.Logger, c.Metrics)
}

func (c *Components) newScheduler() (*scheduler.Scheduler, error) {
	s := c.Config.Scheduler

	platforms := make([]domain.Platform, 0, len(s.Platforms))
	for _, name := range s.Platforms {
		p, err := domain.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}

	var store scheduler.VideoStore
	if c.Repository != nil {
		store = c.Repository
	}

	return scheduler.New(scheduler.Config{
		Schedule:   s.Schedule,
		Keywords:   s.Keywords,
		Platforms:  platforms,
		MaxResults: s.MaxResults,
		RunTimeout: c.Config.Collector.AdapterTimeout,
	}, c.Collector, store, c.Logger, c.Metrics)
}

// RouteConfig returns the API route wiring for c.
func (c *Components) RouteConfig() api.RouteConfig {
	rl := c.Config.RateLimit
	return api.RouteConfig{
		Limiter:        c.Limiter,
		CollectRule:    ratelimit.Rule{Name: "collect", Window: rl.Collect.Window, Max: rl.Collect.Max},
		AnalyzeRule:    ratelimit.Rule{Name: "analyze", Window: rl.Analyze.Window, Max: rl.Analyze.Max},
		JWTSecret:      c.Config.Auth.JWTSecret,
		RequestTimeout: c.Config.AI.Timeout * time.Duration(max(c.Config.AI.MaxRetries, 1)),
	}
}

// Close releases storage connections.
func (c *Components) Close() error {
	var errs []error
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}
