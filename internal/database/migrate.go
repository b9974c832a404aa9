package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// newMigrate opens a dedicated connection; closing the returned Migrate
// closes it.
func newMigrate(dsn string) (*migrate.Migrate, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations.
func RunMigrations(dsn string, log logger.Logger) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if upErr := m.Up(); upErr != nil {
		if errors.Is(upErr, migrate.ErrNoChange) {
			log.Info("No pending migrations")
			return nil
		}
		return fmt.Errorf("run migrations: %w", upErr)
	}

	version, _, _ := m.Version()
	log.Info("Migrations applied successfully", logger.Int("version", int(version)))

	return nil
}

// MigrationVersion returns the current schema version and dirty flag.
func MigrationVersion(dsn string) (uint, bool, error) {
	m, err := newMigrate(dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, nil
}
