package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/bootstrap"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the watch-list scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.components(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			defer func() { _ = c.Logger.Sync() }()

			return bootstrap.Serve(cmd.Context(), c)
		},
	}
}
