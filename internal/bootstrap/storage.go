package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	infralogger "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	infraredis "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/redis"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/config"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/database"
)

// SetupDatabase connects to PostgreSQL and applies migrations. It returns
// nil components when the database is disabled.
func SetupDatabase(ctx context.Context, cfg *config.Config, logger infralogger.Logger) (*sqlx.DB, *database.Repository, error) {
	if !cfg.Database.Enabled {
		logger.Info("Database disabled, results will not be persisted")
		return nil, nil, nil
	}

	logger.Info("Connecting to PostgreSQL database",
		infralogger.String("host", cfg.Database.Host),
		infralogger.Int("port", cfg.Database.Port),
		infralogger.String("database", cfg.Database.Database),
	)

	if err := database.RunMigrations(cfg.Database.DSN(), logger); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Database connected successfully")
	return db, database.NewRepository(db), nil
}

// SetupRedis connects to Redis. Cache and rate limiter work without it, so
// a failed connection is logged and nil is returned.
func SetupRedis(ctx context.Context, cfg *config.Config, logger infralogger.Logger) *goredis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, response cache off and rate limits kept in memory")
		return nil
	}

	client, err := infraredis.NewClient(ctx, infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis unavailable, continuing without it",
			infralogger.String("address", cfg.Redis.Address),
			infralogger.Error(err),
		)
		return nil
	}

	logger.Info("Redis connected", infralogger.String("address", cfg.Redis.Address))
	return client
}
