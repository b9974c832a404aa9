package enricher

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// MaxHookDrafts bounds DraftHooks.
const MaxHookDrafts = 10

var (
	analysisSchema = Schema[domain.AnalysisResult]{Name: "analysis"}
	hookSchema     = Schema[domain.HookDraft]{Name: "hook_draft"}
)

// AnalyzeTrend asks the model for a structured analysis of the videos
// collected for keyword.
func (e *Enricher) AnalyzeTrend(ctx context.Context, keyword string, videos []domain.NormalizedTrendVideo, opts Options) Result[domain.AnalysisResult] {
	if len(videos) == 0 {
		return Result[domain.AnalysisResult]{
			Err: domain.NewError(domain.KindValidation, "enricher.analyze", errors.New("no videos to analyze")),
		}
	}

	return Generate(ctx, e, analysisMessages(keyword, videos), analysisSchema, opts)
}

// DraftHooks produces n independent creative drafts for an analysis.
func (e *Enricher) DraftHooks(ctx context.Context, analysis domain.AnalysisResult, n int, opts Options) []Result[domain.HookDraft] {
	const op = "enricher.hooks"

	if n < 1 || n > MaxHookDrafts {
		err := domain.Errorf(domain.KindValidation, op, "count must be between 1 and %d", MaxHookDrafts)
		return []Result[domain.HookDraft]{{Err: err}}
	}

	encoded, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return []Result[domain.HookDraft]{{Err: domain.NewError(domain.KindPermanent, op, err)}}
	}

	variations := make([][]Message, n)
	for i := range variations {
		variations[i] = hookMessages(string(encoded), i, n)
	}

	return GenerateVariations(ctx, e, variations, hookSchema, opts)
}
