package enricher

import (
	"fmt"
	"strings"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// maxPromptVideos caps how many videos are described to the model.
const maxPromptVideos = 20

const analystSystemPrompt = `You are a short-form video trend analyst for Samyang Foods, maker of Buldak spicy noodles.
Judge how likely a trend is to go viral and how well it fits Samyang products.
Answer with a single JSON object and nothing else.`

const analysisInstructions = `Analyze the trend behind the keyword %q from these %d short-form videos:

%s
Return JSON with exactly these fields:
{
  "trend_name": string,
  "platform": string (the platform where the trend is strongest),
  "country": string (ISO country code or "global"),
  "viral_score": integer 0-100,
  "samyang_relevance": integer 0-100,
  "format_type": string (e.g. challenge, recipe, mukbang, review),
  "hook_pattern": string,
  "visual_pattern": string,
  "music_pattern": string,
  "recommended_products": [string] (Samyang products, at least one),
  "target_audience": string,
  "risks": [string]
}`

const hookSystemPrompt = `You write short-form video hooks for Samyang Foods campaigns.
Answer with a single JSON object and nothing else.`

const hookInstructions = `Trend analysis:
%s

Write draft %d of %d: a new opening hook for a 15-30 second video riding this trend.
Make it distinct from the other drafts by using the angle %q.
Return JSON: {"hook": string, "script": string, "caption": string, "hashtags": [string] (at most 10)}`

// hookAngles vary the drafts so their fingerprints differ.
var hookAngles = []string{
	"spice challenge",
	"recipe hack",
	"reaction",
	"storytelling",
	"behind the scenes",
	"duet or stitch",
}

func analysisMessages(keyword string, videos []domain.NormalizedTrendVideo) []Message {
	if len(videos) > maxPromptVideos {
		videos = videos[:maxPromptVideos]
	}

	var b strings.Builder
	for i, v := range videos {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, v.Platform, v.Title)
		if v.ViewCount != nil {
			fmt.Fprintf(&b, " | views %d", *v.ViewCount)
		}
		if v.LikeCount != nil {
			fmt.Fprintf(&b, " | likes %d", *v.LikeCount)
		}
		if v.DurationSeconds != nil {
			fmt.Fprintf(&b, " | %ds", *v.DurationSeconds)
		}
		if len(v.Tags) > 0 {
			fmt.Fprintf(&b, " | #%s", strings.Join(v.Tags, " #"))
		}
		b.WriteByte('\n')
	}

	return []Message{
		{Role: RoleSystem, Content: analystSystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf(analysisInstructions, keyword, len(videos), b.String())},
	}
}

func hookMessages(analysisJSON string, index, total int) []Message {
	angle := hookAngles[index%len(hookAngles)]
	return []Message{
		{Role: RoleSystem, Content: hookSystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf(hookInstructions, analysisJSON, index+1, total, angle)},
	}
}
