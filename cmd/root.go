// Package cmd implements the trends command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	infralogger "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/bootstrap"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

type globalFlags struct {
	configPath string
	debug      bool
}

// NewRootCommand builds the trends command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "trends",
		Short:         "Short-form video trend collection and analysis",
		Long:          `Collects trending short-form videos from YouTube, TikTok and Instagram and analyzes them with an AI provider.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(flags),
		newCollectCommand(flags),
		newAnalyzeCommand(flags),
		newMigrateCommand(flags),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trends version %s\n", Version)
		},
	}
}

// load reads configuration and creates a logger honoring --debug.
func (f *globalFlags) load() (*config.Config, infralogger.Logger, error) {
	cfg, err := bootstrap.LoadConfig(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}
	if cfg.Service.Version == "" || Version != "dev" {
		cfg.Service.Version = Version
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// components loads configuration and builds the pipeline. The caller
// closes the returned components.
func (f *globalFlags) components(ctx context.Context) (*bootstrap.Components, error) {
	cfg, log, err := f.load()
	if err != nil {
		return nil, err
	}
	c, err := bootstrap.NewComponents(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	return c, nil
}
