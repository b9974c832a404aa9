// Package api exposes collection and enrichment over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/database"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/enricher"
)

// defaultHookCount is used when a hooks request names no count.
const defaultHookCount = 3

// Collector runs a collection.
type Collector interface {
	Collect(ctx context.Context, keyword string, opts domain.CollectOptions) (*domain.TrendCollectionResult, error)
}

// Enricher produces analyses and hook drafts.
type Enricher interface {
	AnalyzeTrend(ctx context.Context, keyword string, videos []domain.NormalizedTrendVideo, opts enricher.Options) enricher.Result[domain.AnalysisResult]
	DraftHooks(ctx context.Context, analysis domain.AnalysisResult, n int, opts enricher.Options) []enricher.Result[domain.HookDraft]
	DefaultConfig() enricher.ProviderConfig
}

// Store persists videos and analyses. Handlers work without one; lookups
// then report 404 and listing is unavailable.
type Store interface {
	SaveVideos(ctx context.Context, keyword string, videos []domain.NormalizedTrendVideo) error
	ListVideos(ctx context.Context, f database.VideoFilter) ([]domain.NormalizedTrendVideo, error)
	SaveAnalysis(ctx context.Context, keyword, provider, model string, result domain.AnalysisResult) (*domain.StoredAnalysis, error)
	GetAnalysis(ctx context.Context, id string) (*domain.StoredAnalysis, error)
}

// Handler serves the trend API.
type Handler struct {
	collector   Collector
	enricher    Enricher
	store       Store
	temperature float64
	log         logger.Logger
}

// NewHandler creates a Handler. store may be nil.
func NewHandler(c Collector, e Enricher, store Store, temperature float64, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		collector:   c,
		enricher:    e,
		store:       store,
		temperature: temperature,
		log:         log.With(logger.Component("api")),
	}
}

// CollectRequest is the body of POST /trends/collect.
type CollectRequest struct {
	Keyword string `json:"keyword" binding:"required"`
	domain.CollectOptions
	// Persist stores the collected videos when a database is configured.
	Persist bool `json:"persist"`
}

// Collect handles POST /api/v1/trends/collect.
func (h *Handler) Collect(c *gin.Context) {
	var req CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewError(domain.KindValidation, "collect", err), true)
		return
	}

	result, err := h.collector.Collect(c.Request.Context(), strings.TrimSpace(req.Keyword), req.CollectOptions)
	if err != nil {
		respondError(c, err, true)
		return
	}

	if req.Persist && h.store != nil && result.TotalVideos > 0 {
		if saveErr := h.store.SaveVideos(c.Request.Context(), result.Keyword, result.Videos); saveErr != nil {
			respondError(c, saveErr, false)
			return
		}
	}

	if result.AllFailed() {
		c.JSON(collectionStatus(result.Errors), result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListVideos handles GET /api/v1/trends?keyword=&platform=&limit=.
func (h *Handler) ListVideos(c *gin.Context) {
	const op = "list"

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage is not configured"})
		return
	}

	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		respondError(c, domain.Errorf(domain.KindValidation, op, "keyword is required"), true)
		return
	}

	filter := database.VideoFilter{Keyword: keyword}
	if p := c.Query("platform"); p != "" {
		platform, err := domain.ParsePlatform(p)
		if err != nil {
			respondError(c, domain.NewError(domain.KindValidation, op, err), true)
			return
		}
		filter.Platform = platform
	}
	if l := c.Query("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 {
			respondError(c, domain.Errorf(domain.KindValidation, op, "limit must be a positive integer"), true)
			return
		}
		filter.Limit = limit
	}

	videos, err := h.store.ListVideos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, false)
		return
	}

	c.JSON(http.StatusOK, gin.H{"keyword": keyword, "count": len(videos), "videos": videos})
}

// ProviderRequest selects the model of an enrichment call.
type ProviderRequest struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature" binding:"omitempty,gte=0,lte=2"`
}

// AnalyzeRequest is the body of POST /trends/analyze. Without videos the
// keyword is collected first.
type AnalyzeRequest struct {
	Keyword string                        `json:"keyword"  binding:"required"`
	Videos  []domain.NormalizedTrendVideo `json:"videos"`
	Options domain.CollectOptions         `json:"options"`
	ProviderRequest
}

// AnalyzeResponse is the body of a successful analysis.
type AnalyzeResponse struct {
	ID       string                `json:"id,omitempty"`
	Analysis domain.AnalysisResult `json:"analysis"`
	Usage    *enricher.Usage       `json:"usage,omitempty"`
	CacheHit bool                  `json:"cacheHit"`
	Provider string                `json:"provider"`
	Model    string                `json:"model"`
	Videos   int                   `json:"videos"`
}

// Analyze handles POST /api/v1/trends/analyze.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewError(domain.KindValidation, "analyze", err), true)
		return
	}

	opts, err := h.options(req.ProviderRequest)
	if err != nil {
		respondError(c, err, true)
		return
	}

	ctx := c.Request.Context()
	keyword := strings.TrimSpace(req.Keyword)

	videos := req.Videos
	if len(videos) == 0 {
		result, collectErr := h.collector.Collect(ctx, keyword, req.Options)
		if collectErr != nil {
			respondError(c, collectErr, true)
			return
		}
		if result.AllFailed() {
			c.JSON(collectionStatus(result.Errors), result)
			return
		}
		if result.TotalVideos == 0 {
			respondError(c, domain.Errorf(domain.KindNotFound, "analyze", "no videos found for %q", keyword), true)
			return
		}
		videos = result.Videos
	}

	res := h.enricher.AnalyzeTrend(ctx, keyword, videos, opts)
	if res.Err != nil {
		respondError(c, res.Err, false)
		return
	}

	resp := AnalyzeResponse{
		Analysis: *res.Object,
		Usage:    res.Usage,
		CacheHit: res.CacheHit,
		Provider: opts.Config.Provider(),
		Model:    opts.Config.ModelName(),
		Videos:   len(videos),
	}

	if h.store != nil {
		stored, saveErr := h.store.SaveAnalysis(ctx, keyword, resp.Provider, resp.Model, resp.Analysis)
		if saveErr != nil {
			h.log.Warn("Failed to store analysis", logger.String("keyword", keyword), logger.Error(saveErr))
		} else {
			resp.ID = stored.ID
		}
	}

	c.JSON(http.StatusOK, resp)
}

// HooksRequest is the body of POST /trends/hooks. Either AnalysisID or
// Analysis must be set.
type HooksRequest struct {
	AnalysisID string                 `json:"analysisId"`
	Analysis   *domain.AnalysisResult `json:"analysis"`
	Count      int                    `json:"count" binding:"omitempty,min=1,max=10"`
	ProviderRequest
}

// HookResult is one draft or its failure.
type HookResult struct {
	Draft *domain.HookDraft `json:"draft,omitempty"`
	Error string            `json:"error,omitempty"`
	Kind  string            `json:"kind,omitempty"`
}

// Hooks handles POST /api/v1/trends/hooks.
func (h *Handler) Hooks(c *gin.Context) {
	const op = "hooks"

	var req HooksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewError(domain.KindValidation, op, err), true)
		return
	}

	opts, err := h.options(req.ProviderRequest)
	if err != nil {
		respondError(c, err, true)
		return
	}

	ctx := c.Request.Context()

	analysis := req.Analysis
	if analysis == nil {
		if req.AnalysisID == "" {
			respondError(c, domain.Errorf(domain.KindValidation, op, "analysis or analysisId is required"), true)
			return
		}
		if h.store == nil {
			respondError(c, domain.Errorf(domain.KindNotFound, op, "analysis %s not found", req.AnalysisID), true)
			return
		}
		stored, getErr := h.store.GetAnalysis(ctx, req.AnalysisID)
		if getErr != nil {
			respondError(c, getErr, false)
			return
		}
		analysis = &stored.Result
	}

	count := req.Count
	if count == 0 {
		count = defaultHookCount
	}

	results := h.enricher.DraftHooks(ctx, *analysis, count, opts)

	drafts := make([]HookResult, len(results))
	succeeded := 0
	var firstErr error
	for i, r := range results {
		if r.Err != nil {
			drafts[i] = HookResult{Error: r.Err.Error(), Kind: string(domain.KindOf(r.Err))}
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		drafts[i] = HookResult{Draft: r.Object}
		succeeded++
	}

	if succeeded == 0 && firstErr != nil {
		respondError(c, firstErr, false)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": succeeded, "drafts": drafts})
}

// GetAnalysis handles GET /api/v1/analyses/:id.
func (h *Handler) GetAnalysis(c *gin.Context) {
	id := c.Param("id")

	if h.store == nil {
		respondError(c, domain.Errorf(domain.KindNotFound, "analysis", "analysis %s not found", id), true)
		return
	}

	stored, err := h.store.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, false)
		return
	}

	c.JSON(http.StatusOK, stored)
}

// options resolves the provider selection of a request.
func (h *Handler) options(req ProviderRequest) (enricher.Options, error) {
	temperature := h.temperature
	opts := enricher.Options{Config: h.enricher.DefaultConfig(), Temperature: &temperature}

	if req.Provider != "" || req.Model != "" {
		provider := req.Provider
		if provider == "" {
			provider = opts.Config.Provider()
		}
		cfg, err := enricher.ParseProviderConfig(provider, req.Model)
		if err != nil {
			return opts, err
		}
		opts.Config = cfg
	}
	if req.Temperature != nil {
		opts.Temperature = req.Temperature
	}

	return opts, nil
}
