// Package config loads the trend service configuration.
package config

import (
	"time"

	"github.com/robfig/cron/v3"

	infraconfig "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/config"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/profiling"
)

// Default configuration values.
const (
	defaultServiceName      = "trends"
	defaultServiceVersion   = "1.0.0"
	defaultServicePort      = 8090
	defaultShutdownTimeout  = 15 * time.Second
	defaultDBUser           = "postgres"
	defaultDBName           = "trends"
	defaultPlatformTimeout  = 15 * time.Second
	defaultPlatformAttempts = 3
	defaultPlatformDelay    = time.Second
	defaultPlatformRPS      = 5.0
	defaultTikTokHost       = "tiktok-scraper7.p.rapidapi.com"
	defaultRegion           = "KR"
	defaultAdapterTimeout   = 30 * time.Second
	defaultTitleThreshold   = 0.9
	defaultAIProvider       = "anthropic"
	defaultAITemperature    = 0.7
	defaultAIMaxRetries     = 3
	defaultAIRetryDelay     = time.Second
	defaultAITimeout        = 60 * time.Second
	defaultCacheTTL         = 24 * time.Hour
	defaultRateWindow       = time.Minute
	defaultCollectMax       = 10
	defaultAnalyzeMax       = 5
	defaultSchedule         = "0 */6 * * *"
	defaultScheduleResults  = 20
)

// Config holds all configuration for the trend service.
type Config struct {
	Service   ServiceConfig              `yaml:"service"`
	Database  infraconfig.DatabaseConfig `yaml:"database"`
	Redis     infraconfig.RedisConfig    `yaml:"redis"`
	Logging   infraconfig.LoggingConfig  `yaml:"logging"`
	Auth      AuthConfig                 `yaml:"auth"`
	Platforms PlatformsConfig            `yaml:"platforms"`
	Collector CollectorConfig            `yaml:"collector"`
	AI        AIConfig                   `yaml:"ai"`
	RateLimit RateLimitConfig            `yaml:"rate_limit"`
	Scheduler SchedulerConfig            `yaml:"scheduler"`
	Profiling profiling.Config           `yaml:"profiling"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"TRENDS_PORT"  yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"    yaml:"debug"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig holds authentication configuration. Without a secret every
// caller is anonymous and rate limited by IP.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// PlatformsConfig holds the search adapters' settings.
type PlatformsConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	RPS         float64       `yaml:"rps"`
	Region      string        `env:"TRENDS_REGION" yaml:"region"`

	YouTube   YouTubeConfig   `yaml:"youtube"`
	TikTok    TikTokConfig    `yaml:"tiktok"`
	Instagram InstagramConfig `yaml:"instagram"`
}

// YouTubeConfig is the YouTube Data API v3.
type YouTubeConfig struct {
	APIKey  string `env:"YOUTUBE_API_KEY" yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// InstagramConfig is the SerpApi search used for Reels.
type InstagramConfig struct {
	APIKey  string `env:"SERPAPI_API_KEY" yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// TikTokConfig is the RapidAPI TikTok search API.
type TikTokConfig struct {
	APIKey  string `env:"TIKTOK_API_KEY"  yaml:"api_key"`
	Host    string `env:"TIKTOK_API_HOST" yaml:"host"`
	BaseURL string `yaml:"base_url"`
}

// CollectorConfig tunes the collection fan-out.
type CollectorConfig struct {
	Workers                  int           `yaml:"workers"`
	AdapterTimeout           time.Duration `yaml:"adapter_timeout"`
	DedupByTitle             bool          `yaml:"dedup_by_title"`
	TitleSimilarityThreshold float64       `yaml:"title_similarity_threshold"`
}

// AIConfig selects and tunes the enrichment provider.
type AIConfig struct {
	Provider    string        `env:"AI_PROVIDER" yaml:"provider"`
	Model       string        `env:"AI_MODEL"    yaml:"model"`
	Temperature *float64      `yaml:"temperature"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
}

// TemperatureValue returns the configured temperature, zero included, or the
// default when none is set.
func (a *AIConfig) TemperatureValue() float64 {
	if a.Temperature == nil {
		return defaultAITemperature
	}
	return *a.Temperature
}

// AnthropicConfig holds the Anthropic credential.
type AnthropicConfig struct {
	APIKey  string `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// OpenAIConfig holds the OpenAI credential.
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY" yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// RateLimitConfig holds the per-route request quotas.
type RateLimitConfig struct {
	Collect RuleConfig `yaml:"collect"`
	Analyze RuleConfig `yaml:"analyze"`
}

// RuleConfig is a fixed-window quota.
type RuleConfig struct {
	Window time.Duration `yaml:"window"`
	Max    int           `yaml:"max"`
}

// SchedulerConfig drives periodic collection of a keyword watch list.
type SchedulerConfig struct {
	Enabled    bool     `env:"SCHEDULER_ENABLED" yaml:"enabled"`
	Schedule   string   `env:"SCHEDULER_CRON"    yaml:"schedule"`
	Keywords   []string `env:"WATCH_KEYWORDS"    yaml:"keywords"`
	Platforms  []string `yaml:"platforms"`
	MaxResults int      `yaml:"max_results"`
}

// Load loads configuration from path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// Defaults returns a configuration built from defaults and the environment
// alone, for running without a config file.
func Defaults() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	infraconfig.ApplyEnvOverrides(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	cfg.Database.SetDefaults()
	if cfg.Database.User == "" {
		cfg.Database.User = defaultDBUser
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = defaultDBName
	}
	cfg.Redis.SetDefaults()
	cfg.Logging.SetDefaults()
	setPlatformDefaults(&cfg.Platforms)
	setCollectorDefaults(&cfg.Collector)
	setAIDefaults(&cfg.AI)
	setRuleDefaults(&cfg.RateLimit.Collect, defaultCollectMax)
	setRuleDefaults(&cfg.RateLimit.Analyze, defaultAnalyzeMax)
	setSchedulerDefaults(&cfg.Scheduler)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownTimeout
	}
}

func setPlatformDefaults(p *PlatformsConfig) {
	if p.Timeout == 0 {
		p.Timeout = defaultPlatformTimeout
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = defaultPlatformAttempts
	}
	if p.RetryDelay == 0 {
		p.RetryDelay = defaultPlatformDelay
	}
	if p.RPS == 0 {
		p.RPS = defaultPlatformRPS
	}
	if p.Region == "" {
		p.Region = defaultRegion
	}
	if p.TikTok.Host == "" {
		p.TikTok.Host = defaultTikTokHost
	}
}

func setCollectorDefaults(c *CollectorConfig) {
	if c.AdapterTimeout == 0 {
		c.AdapterTimeout = defaultAdapterTimeout
	}
	if c.TitleSimilarityThreshold == 0 {
		c.TitleSimilarityThreshold = defaultTitleThreshold
	}
}

func setAIDefaults(a *AIConfig) {
	if a.Provider == "" {
		a.Provider = defaultAIProvider
	}
	if a.Temperature == nil {
		t := defaultAITemperature
		a.Temperature = &t
	}
	if a.MaxRetries == 0 {
		a.MaxRetries = defaultAIMaxRetries
	}
	if a.RetryDelay == 0 {
		a.RetryDelay = defaultAIRetryDelay
	}
	if a.Timeout == 0 {
		a.Timeout = defaultAITimeout
	}
	if a.CacheTTL == 0 {
		a.CacheTTL = defaultCacheTTL
	}
}

func setRuleDefaults(r *RuleConfig, maxRequests int) {
	if r.Window == 0 {
		r.Window = defaultRateWindow
	}
	if r.Max == 0 {
		r.Max = maxRequests
	}
}

func setSchedulerDefaults(s *SchedulerConfig) {
	if s.Schedule == "" {
		s.Schedule = defaultSchedule
	}
	if s.MaxResults == 0 {
		s.MaxResults = defaultScheduleResults
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
			return err
		}
	}

	switch c.AI.Provider {
	case "anthropic", "openai":
	default:
		return &infraconfig.ValidationError{Field: "ai.provider", Message: "must be one of: anthropic, openai"}
	}
	if t := c.AI.Temperature; t != nil && (*t < 0 || *t > 2) {
		return &infraconfig.ValidationError{Field: "ai.temperature", Message: "must be between 0 and 2"}
	}

	if c.Collector.TitleSimilarityThreshold <= 0 || c.Collector.TitleSimilarityThreshold > 1 {
		return &infraconfig.ValidationError{Field: "collector.title_similarity_threshold", Message: "must be in (0, 1]"}
	}

	for name, r := range map[string]RuleConfig{"rate_limit.collect": c.RateLimit.Collect, "rate_limit.analyze": c.RateLimit.Analyze} {
		if r.Window <= 0 || r.Max <= 0 {
			return &infraconfig.ValidationError{Field: name, Message: "window and max must be positive"}
		}
	}

	return c.validateScheduler()
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	if len(c.Scheduler.Keywords) == 0 {
		return &infraconfig.ValidationError{Field: "scheduler.keywords", Message: "is required when the scheduler is enabled"}
	}
	if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
		return &infraconfig.ValidationError{Field: "scheduler.schedule", Message: err.Error()}
	}
	return nil
}
