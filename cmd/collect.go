package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	infralogger "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// DefaultMaxResults is the per-platform result count when --max is unset.
const DefaultMaxResults = 10

var errAllPlatformsFailed = errors.New("all platforms failed")

type collectFlags struct {
	platforms  []string
	maxResults int
	persist    bool
	asJSON     bool
}

func (f *collectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.platforms, "platform", "p", nil, "platforms to search (youtube, tiktok, instagram); default all")
	cmd.Flags().IntVarP(&f.maxResults, "max", "n", DefaultMaxResults, "results per platform (1-50)")
}

func (f *collectFlags) options() (domain.CollectOptions, error) {
	opts := domain.CollectOptions{MaxResults: f.maxResults}
	for _, name := range f.platforms {
		p, err := domain.ParsePlatform(name)
		if err != nil {
			return opts, err
		}
		opts.Platforms = append(opts.Platforms, p)
	}
	return opts, nil
}

func newCollectCommand(flags *globalFlags) *cobra.Command {
	f := &collectFlags{}

	cmd := &cobra.Command{
		Use:   "collect <keyword>",
		Short: "Collect trending videos for a keyword",
		Long: `Searches every selected platform concurrently, normalizes and deduplicates the results.

Examples:
  # Collect from all platforms
  trends collect buldak

  # YouTube and TikTok only, 20 results each, stored in the database
  trends collect "fire noodle challenge" -p youtube -p tiktok -n 20 --persist`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}

			c, err := flags.components(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if f.persist && c.Repository == nil {
				return errDatabaseDisabled
			}

			result, err := c.Collector.Collect(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if f.persist {
				if result.TotalVideos > 0 {
					if saveErr := c.Repository.SaveVideos(cmd.Context(), result.Keyword, result.Videos); saveErr != nil {
						return fmt.Errorf("save videos: %w", saveErr)
					}
					c.Logger.Info("Videos stored", infralogger.Int("count", result.TotalVideos))
				}
			}

			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(result); encErr != nil {
					return encErr
				}
			} else {
				renderCollection(cmd.OutOrStdout(), result)
			}

			if result.AllFailed() {
				return errAllPlatformsFailed
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&f.persist, "persist", false, "store the videos in the database")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	return cmd
}
