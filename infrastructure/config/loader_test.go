package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/config"
)

type sampleConfig struct {
	Name    string        `yaml:"name"`
	Port    int           `env:"SAMPLE_PORT"    yaml:"port"`
	Timeout time.Duration `env:"SAMPLE_TIMEOUT" yaml:"timeout"`
	Nested  struct {
		Keywords []string `env:"SAMPLE_KEYWORDS" yaml:"keywords"`
		Enabled  bool     `env:"SAMPLE_ENABLED"  yaml:"enabled"`
	} `yaml:"nested"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_ReadsYAML(t *testing.T) {
	path := writeConfig(t, "name: trends\nport: 8080\ntimeout: 5s\nnested:\n  keywords: [ramen]\n")

	cfg, err := config.Load[sampleConfig](path)
	require.NoError(t, err)

	assert.Equal(t, "trends", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"ramen"}, cfg.Nested.Keywords)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("SAMPLE_PORT", "9090")
	t.Setenv("SAMPLE_TIMEOUT", "250ms")
	t.Setenv("SAMPLE_KEYWORDS", "ramen, buldak ,noodles")
	t.Setenv("SAMPLE_ENABLED", "yes")

	path := writeConfig(t, "port: 8080\n")

	cfg, err := config.Load[sampleConfig](path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{"ramen", "buldak", "noodles"}, cfg.Nested.Keywords)
	assert.True(t, cfg.Nested.Enabled)
}

func TestLoadWithDefaults_EnvWinsOverDefaults(t *testing.T) {
	t.Setenv("SAMPLE_PORT", "7000")

	path := writeConfig(t, "name: trends\n")

	cfg, err := config.LoadWithDefaults(path, func(c *sampleConfig) {
		if c.Port == 0 {
			c.Port = 8080
		}
		if c.Timeout == 0 {
			c.Timeout = time.Second
		}
	})
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load[sampleConfig](filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidatePort(t *testing.T) {
	t.Parallel()

	assert.NoError(t, config.ValidatePort("service.port", 8080))

	err := config.ValidatePort("service.port", 70000)
	var vErr *config.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "service.port", vErr.Field)
}
