// Package bootstrap wires configuration into running components.
package bootstrap

import (
	"fmt"
	"log"

	infraconfig "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/config"
	infralogger "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/config"
)

// LoadConfig loads and validates configuration. An empty path falls back
// to CONFIG_PATH, then config.yml. A missing file means defaults plus the
// environment.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath("config.yml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Printf("Warning: Failed to load config file (%s), using defaults: %v", path, err)
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (infralogger.Logger, error) {
	logger, err := infralogger.New(infralogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger.With(infralogger.String("service", cfg.Service.Name)), nil
}
