// Package database persists collected videos, analyses and AI usage in
// PostgreSQL.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	infraconfig "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/config"
)

// DefaultPingTimeout bounds the connectivity check in Connect.
const DefaultPingTimeout = 5 * time.Second

// Connect opens a pooled connection and verifies it.
func Connect(ctx context.Context, cfg *infraconfig.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return db, nil
}
