package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/enricher"
)

func newAnalyzeCommand(flags *globalFlags) *cobra.Command {
	f := &collectFlags{}
	var (
		provider string
		model    string
		hooks    int
	)

	cmd := &cobra.Command{
		Use:   "analyze <keyword>",
		Short: "Collect a keyword and analyze the trend with an AI provider",
		Long: `Collects videos for the keyword, asks the AI provider for a structured trend analysis
and optionally drafts content hooks from it.

Examples:
  trends analyze buldak --hooks 3
  trends analyze carbonara --provider openai --model gpt-4o`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hooks < 0 || hooks > enricher.MaxHookDrafts {
				return fmt.Errorf("--hooks must be between 0 and %d", enricher.MaxHookDrafts)
			}
			opts, err := f.options()
			if err != nil {
				return err
			}

			c, err := flags.components(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			temperature := c.Config.AI.TemperatureValue()
			genOpts := enricher.Options{Config: c.Enricher.DefaultConfig(), Temperature: &temperature}
			if provider != "" || model != "" {
				if provider == "" {
					provider = genOpts.Config.Provider()
				}
				pc, parseErr := enricher.ParseProviderConfig(provider, model)
				if parseErr != nil {
					return parseErr
				}
				genOpts.Config = pc
			}

			ctx := cmd.Context()
			result, err := c.Collector.Collect(ctx, args[0], opts)
			if err != nil {
				return err
			}
			if result.TotalVideos == 0 {
				renderCollection(cmd.OutOrStdout(), result)
				return errors.New("no videos to analyze")
			}

			res := c.Enricher.AnalyzeTrend(ctx, result.Keyword, result.Videos, genOpts)
			if res.Err != nil {
				if hint := domain.HintOf(res.Err); hint != "" {
					return fmt.Errorf("%w (%s)", res.Err, hint)
				}
				return res.Err
			}
			renderAnalysis(cmd.OutOrStdout(), res.Object)

			if c.Repository != nil {
				if _, saveErr := c.Repository.SaveAnalysis(ctx, result.Keyword, genOpts.Config.Provider(), genOpts.Config.ModelName(), *res.Object); saveErr != nil {
					return fmt.Errorf("save analysis: %w", saveErr)
				}
			}

			if hooks == 0 {
				return nil
			}

			drafts := c.Enricher.DraftHooks(ctx, *res.Object, hooks, genOpts)
			objs := make([]*domain.HookDraft, len(drafts))
			errs := make([]error, len(drafts))
			for i, d := range drafts {
				objs[i], errs[i] = d.Object, d.Err
			}
			renderHooks(cmd.OutOrStdout(), objs, errs)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&provider, "provider", "", "AI provider (anthropic, openai); default from config")
	cmd.Flags().StringVar(&model, "model", "", "model name; default for the provider")
	cmd.Flags().IntVar(&hooks, "hooks", 0, "number of hook drafts to generate")
	return cmd
}
