package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/database"
)

var errDatabaseDisabled = errors.New("database is not enabled (set DATABASE_ENABLED=true)")

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, log, err := flags.load()
				if err != nil {
					return err
				}
				if !cfg.Database.Enabled {
					return errDatabaseDisabled
				}
				return database.RunMigrations(cfg.Database.DSN(), log)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, _, err := flags.load()
				if err != nil {
					return err
				}
				if !cfg.Database.Enabled {
					return errDatabaseDisabled
				}
				version, dirty, err := database.MigrationVersion(cfg.Database.DSN())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)
	return migrateCmd
}
