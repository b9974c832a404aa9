// Package dedup removes duplicate and near-duplicate videos from a batch.
package dedup

import (
	"strings"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// DefaultTitleSimilarityThreshold is the Jaccard similarity at or above which
// two titles are considered the same video.
const DefaultTitleSimilarityThreshold = 0.9

// Options selects the dedup passes.
type Options struct {
	ByURL                    bool
	ByTitle                  bool
	TitleSimilarityThreshold float64
}

// DefaultOptions dedups by canonical URL only.
func DefaultOptions() Options {
	return Options{
		ByURL:                    true,
		TitleSimilarityThreshold: DefaultTitleSimilarityThreshold,
	}
}

// Dedupe keeps the first-seen video of every duplicate group and preserves
// input order. The input slice is not modified.
func Dedupe(videos []domain.NormalizedTrendVideo, opts Options) []domain.NormalizedTrendVideo {
	threshold := opts.TitleSimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultTitleSimilarityThreshold
	}

	out := make([]domain.NormalizedTrendVideo, 0, len(videos))
	seenURL := make(map[string]struct{}, len(videos))
	var keptTitles []map[string]struct{}

	for _, v := range videos {
		if opts.ByURL {
			key := domain.CanonicalURL(v.VideoURL)
			if _, dup := seenURL[key]; dup {
				continue
			}
			seenURL[key] = struct{}{}
		}

		if opts.ByTitle {
			tokens := titleTokens(v.Title)
			if similarToAny(tokens, keptTitles, threshold) {
				continue
			}
			keptTitles = append(keptTitles, tokens)
		}

		out = append(out, v)
	}

	return out
}

func similarToAny(tokens map[string]struct{}, kept []map[string]struct{}, threshold float64) bool {
	for _, k := range kept {
		if Jaccard(tokens, k) >= threshold {
			return true
		}
	}
	return false
}

func titleTokens(title string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(title))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard is |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0 so that
// untitled videos never collapse into each other.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}

	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// TitleSimilarity is the Jaccard similarity of two titles' lowercase whitespace tokens.
func TitleSimilarity(a, b string) float64 {
	return Jaccard(titleTokens(a), titleTokens(b))
}
