package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraconfig "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/config"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "service:\n  name: trends\n"))
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Service.Port)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 24*time.Hour, cfg.AI.CacheTTL)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RateLimit.Collect.Window)
	assert.Equal(t, 10, cfg.RateLimit.Collect.Max)
	assert.Equal(t, 5, cfg.RateLimit.Analyze.Max)
	assert.InDelta(t, 0.9, cfg.Collector.TitleSimilarityThreshold, 0)
	assert.Equal(t, "tiktok-scraper7.p.rapidapi.com", cfg.Platforms.TikTok.Host)
	assert.Equal(t, "trends", cfg.Database.Database)
	assert.InDelta(t, 0.7, cfg.AI.TemperatureValue(), 0)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ZeroTemperature(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "ai:\n  temperature: 0\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.AI.Temperature)
	assert.Zero(t, cfg.AI.TemperatureValue())
	require.NoError(t, cfg.Validate())
}

func TestDefaults(t *testing.T) {
	t.Setenv("TRENDS_PORT", "9100")

	cfg := config.Defaults()

	assert.Equal(t, 9100, cfg.Service.Port)
	assert.Equal(t, "0 */6 * * *", cfg.Scheduler.Schedule)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvSecrets(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("SERPAPI_API_KEY", "serp-key")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("WATCH_KEYWORDS", "buldak, ramen")

	cfg, err := config.Load(writeConfig(t, "platforms:\n  youtube:\n    api_key: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "yt-key", cfg.Platforms.YouTube.APIKey)
	assert.Equal(t, "serp-key", cfg.Platforms.Instagram.APIKey)
	assert.Equal(t, "sk-openai", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, []string{"buldak", "ramen"}, cfg.Scheduler.Keywords)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"bad port", func(c *config.Config) { c.Service.Port = 70000 }, "service.port"},
		{"unknown provider", func(c *config.Config) { c.AI.Provider = "gemini" }, "ai.provider"},
		{"zero rule", func(c *config.Config) { c.RateLimit.Analyze.Max = -1 }, "rate_limit.analyze"},
		{"temperature", func(c *config.Config) {
			hot := 2.5
			c.AI.Temperature = &hot
		}, "ai.temperature"},
		{"threshold", func(c *config.Config) { c.Collector.TitleSimilarityThreshold = 1.5 }, "collector.title_similarity_threshold"},
		{"scheduler without keywords", func(c *config.Config) { c.Scheduler.Enabled = true }, "scheduler.keywords"},
		{"bad cron", func(c *config.Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Keywords = []string{"buldak"}
			c.Scheduler.Schedule = "every day"
		}, "scheduler.schedule"},
		{"database without user", func(c *config.Config) {
			c.Database.Enabled = true
			c.Database.User = ""
		}, "database.user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeConfig(t, "{}\n"))
			require.NoError(t, err)

			tt.mutate(cfg)

			var vErr *infraconfig.ValidationError
			require.True(t, errors.As(cfg.Validate(), &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
