package domain

import (
	"time"
)

// AnalysisResult is the structured AI analysis of a trend. Field names on the
// wire follow the prompt contract the model is asked to fill.
type AnalysisResult struct {
	TrendName           string   `json:"trend_name"           validate:"required"`
	Platform            string   `json:"platform"             validate:"required"`
	Country             string   `json:"country"              validate:"required"`
	ViralScore          int      `json:"viral_score"          validate:"gte=0,lte=100"`
	BrandRelevance      int      `json:"samyang_relevance"    validate:"gte=0,lte=100"`
	FormatType          string   `json:"format_type"          validate:"required"`
	HookPattern         string   `json:"hook_pattern"`
	VisualPattern       string   `json:"visual_pattern"`
	MusicPattern        string   `json:"music_pattern"`
	RecommendedProducts []string `json:"recommended_products" validate:"required,dive,required"`
	TargetAudience      string   `json:"target_audience"      validate:"required"`
	Risks               []string `json:"risks"`
}

// HookDraft is one creative variation produced from an analysis.
type HookDraft struct {
	Hook     string   `json:"hook"     validate:"required"`
	Script   string   `json:"script"   validate:"required"`
	Caption  string   `json:"caption"  validate:"required"`
	Hashtags []string `json:"hashtags" validate:"max=10"`
}

// StoredAnalysis is a persisted AnalysisResult.
type StoredAnalysis struct {
	ID        string         `json:"id"`
	Keyword   string         `json:"keyword"`
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	Result    AnalysisResult `json:"result"`
	CreatedAt time.Time      `json:"createdAt"`
}

// UsageRecord is the per-call accounting line for a provider call.
type UsageRecord struct {
	ID               string        `json:"id"`
	Provider         string        `json:"provider"`
	Model            string        `json:"model"`
	PromptTokens     int64         `json:"promptTokens"`
	CompletionTokens int64         `json:"completionTokens"`
	TotalTokens      int64         `json:"totalTokens"`
	Duration         time.Duration `json:"duration"`
	Attempts         int           `json:"attempts"`
	Success          bool          `json:"success"`
	CacheHit         bool          `json:"cacheHit"`
	Error            string        `json:"error,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}
