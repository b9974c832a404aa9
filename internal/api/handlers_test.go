package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/api"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/database"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/enricher"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/ratelimit"
)

type fakeCollector struct {
	result *domain.TrendCollectionResult
	err    error
	calls  int
}

func (f *fakeCollector) Collect(_ context.Context, keyword string, _ domain.CollectOptions) (*domain.TrendCollectionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.Keyword = keyword
	return &r, nil
}

type fakeEnricher struct {
	analysis enricher.Result[domain.AnalysisResult]
	hooks    []enricher.Result[domain.HookDraft]
	lastOpts enricher.Options
}

func (f *fakeEnricher) AnalyzeTrend(_ context.Context, _ string, _ []domain.NormalizedTrendVideo, opts enricher.Options) enricher.Result[domain.AnalysisResult] {
	f.lastOpts = opts
	return f.analysis
}

func (f *fakeEnricher) DraftHooks(_ context.Context, _ domain.AnalysisResult, _ int, opts enricher.Options) []enricher.Result[domain.HookDraft] {
	f.lastOpts = opts
	return f.hooks
}

func (f *fakeEnricher) DefaultConfig() enricher.ProviderConfig {
	return enricher.Anthropic{Model: enricher.DefaultAnthropicModel}
}

type fakeStore struct {
	saved    map[string][]domain.NormalizedTrendVideo
	analyses map[string]*domain.StoredAnalysis
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string][]domain.NormalizedTrendVideo{}, analyses: map[string]*domain.StoredAnalysis{}}
}

func (s *fakeStore) SaveVideos(_ context.Context, keyword string, videos []domain.NormalizedTrendVideo) error {
	s.saved[keyword] = videos
	return nil
}

func (s *fakeStore) ListVideos(_ context.Context, f database.VideoFilter) ([]domain.NormalizedTrendVideo, error) {
	return s.saved[f.Keyword], nil
}

func (s *fakeStore) SaveAnalysis(_ context.Context, keyword, provider, model string, result domain.AnalysisResult) (*domain.StoredAnalysis, error) {
	id := fmt.Sprintf("id-%d", len(s.analyses)+1)
	s.analyses[id] = &domain.StoredAnalysis{ID: id, Keyword: keyword, Provider: provider, Model: model, Result: result}
	return s.analyses[id], nil
}

func (s *fakeStore) GetAnalysis(_ context.Context, id string) (*domain.StoredAnalysis, error) {
	a, ok := s.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

func okResult(n int) *domain.TrendCollectionResult {
	r := &domain.TrendCollectionResult{Videos: []domain.NormalizedTrendVideo{}, Breakdown: map[domain.Platform]int{}}
	for i := range n {
		r.Videos = append(r.Videos, domain.NormalizedTrendVideo{ID: fmt.Sprint(i), Platform: domain.PlatformYouTube, VideoURL: fmt.Sprint("u", i)})
		r.Breakdown[domain.PlatformYouTube]++
	}
	r.TotalVideos = n
	return r
}

func failedResult(kinds ...domain.ErrorKind) *domain.TrendCollectionResult {
	r := okResult(0)
	for _, k := range kinds {
		r.Errors = append(r.Errors, domain.CollectionError{Platform: domain.PlatformYouTube, Source: "youtube", Error: "x", Kind: k})
	}
	return r
}

func newRouter(h *api.Handler, cfg api.RouteConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.SetupRoutes(r, h, cfg)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:5555"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestCollect(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := api.NewHandler(&fakeCollector{result: okResult(5)}, &fakeEnricher{}, store, 0.7, nil)
	r := newRouter(h, api.RouteConfig{})

	w := do(t, r, http.MethodPost, "/api/v1/trends/collect", map[string]any{
		"keyword": "ramen", "platforms": []string{"youtube"}, "persist": true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	res := decode[domain.TrendCollectionResult](t, w)
	assert.Equal(t, "ramen", res.Keyword)
	assert.Equal(t, 5, res.TotalVideos)
	assert.Equal(t, 5, res.Breakdown[domain.PlatformYouTube])
	assert.Len(t, store.saved["ramen"], 5)
}

func TestCollect_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		collector *fakeCollector
		want      int
	}{
		{"invalid input", &fakeCollector{err: domain.Errorf(domain.KindValidation, "collect", "keyword too long")}, http.StatusBadRequest},
		{"all quota", &fakeCollector{result: failedResult(domain.KindQuotaExceeded, domain.KindQuotaExceeded)}, http.StatusTooManyRequests},
		{"quota and credential", &fakeCollector{result: failedResult(domain.KindQuotaExceeded, domain.KindMissingCredential)}, http.StatusInternalServerError},
		{"transient", &fakeCollector{result: failedResult(domain.KindTransient)}, http.StatusNotFound},
		{"partial", &fakeCollector{result: func() *domain.TrendCollectionResult {
			r := okResult(2)
			r.Errors = failedResult(domain.KindQuotaExceeded).Errors
			return r
		}()}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRouter(api.NewHandler(tt.collector, &fakeEnricher{}, nil, 0.7, nil), api.RouteConfig{})
			w := do(t, r, http.MethodPost, "/api/v1/trends/collect", map[string]any{"keyword": "ramen"})
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCollect_MissingKeyword(t *testing.T) {
	t.Parallel()

	c := &fakeCollector{result: okResult(1)}
	r := newRouter(api.NewHandler(c, &fakeEnricher{}, nil, 0.7, nil), api.RouteConfig{})

	w := do(t, r, http.MethodPost, "/api/v1/trends/collect", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, c.calls)
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	e := &fakeEnricher{analysis: enricher.Result[domain.AnalysisResult]{
		Object: &domain.AnalysisResult{TrendName: "fire noodle", ViralScore: 70},
		Usage:  &enricher.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}
	c := &fakeCollector{result: okResult(3)}
	r := newRouter(api.NewHandler(c, e, store, 0.4, nil), api.RouteConfig{})

	w := do(t, r, http.MethodPost, "/api/v1/trends/analyze", map[string]any{"keyword": "buldak", "provider": "openai"})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[api.AnalyzeResponse](t, w)
	assert.Equal(t, "fire noodle", resp.Analysis.TrendName)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, enricher.DefaultOpenAIModel, resp.Model)
	assert.Equal(t, 3, resp.Videos)
	assert.Equal(t, "id-1", resp.ID)
	require.NotNil(t, e.lastOpts.Temperature)
	assert.InDelta(t, 0.4, *e.lastOpts.Temperature, 0)
	assert.Equal(t, 1, c.calls)
}

func TestAnalyze_ZeroTemperature(t *testing.T) {
	t.Parallel()

	e := &fakeEnricher{analysis: enricher.Result[domain.AnalysisResult]{
		Object: &domain.AnalysisResult{TrendName: "fire noodle"},
	}}
	r := newRouter(api.NewHandler(&fakeCollector{result: okResult(2)}, e, nil, 0.7, nil), api.RouteConfig{})

	w := do(t, r, http.MethodPost, "/api/v1/trends/analyze", map[string]any{"keyword": "buldak", "temperature": 0})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, e.lastOpts.Temperature)
	assert.Zero(t, *e.lastOpts.Temperature)
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		body map[string]any
		want int
		hint bool
	}{
		{
			name: "quota",
			err:  domain.NewError(domain.KindQuotaExceeded, "anthropic.complete", errors.New("credit balance")),
			want: http.StatusTooManyRequests,
		},
		{
			name: "missing credential",
			err:  domain.MissingCredential("enricher.generate", "", "ANTHROPIC_API_KEY"),
			want: http.StatusInternalServerError,
			hint: true,
		},
		{
			name: "provider returned bad schema",
			err:  domain.NewError(domain.KindValidation, "enricher.generate", errors.New("viral_score out of range")),
			want: http.StatusInternalServerError,
		},
		{
			name: "unknown model",
			body: map[string]any{"model": "gpt-typo", "provider": "openai"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := &fakeEnricher{analysis: enricher.Result[domain.AnalysisResult]{Err: tt.err}}
			r := newRouter(api.NewHandler(&fakeCollector{result: okResult(1)}, e, nil, 0.7, nil), api.RouteConfig{})

			body := map[string]any{"keyword": "buldak"}
			for k, v := range tt.body {
				body[k] = v
			}
			w := do(t, r, http.MethodPost, "/api/v1/trends/analyze", body)

			assert.Equal(t, tt.want, w.Code)
			resp := decode[api.ErrorResponse](t, w)
			if tt.want == http.StatusTooManyRequests {
				assert.Positive(t, resp.RetryAfter)
				assert.NotEmpty(t, w.Header().Get("Retry-After"))
			}
			if tt.hint {
				assert.Contains(t, resp.Hint, "ANTHROPIC_API_KEY")
			}
			if tt.name == "provider returned bad schema" {
				assert.Equal(t, "internal server error", resp.Error)
			}
		})
	}
}

func TestHooks_FromStoredAnalysis(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	stored, err := store.SaveAnalysis(context.Background(), "buldak", "anthropic", "m", domain.AnalysisResult{TrendName: "x"})
	require.NoError(t, err)

	e := &fakeEnricher{hooks: []enricher.Result[domain.HookDraft]{
		{Object: &domain.HookDraft{Hook: "a"}},
		{Err: domain.NewError(domain.KindTransient, "g", errors.New("timeout"))},
	}}
	r := newRouter(api.NewHandler(&fakeCollector{}, e, store, 0.7, nil), api.RouteConfig{})

	w := do(t, r, http.MethodPost, "/api/v1/trends/hooks", map[string]any{"analysisId": stored.ID, "count": 2})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Count  int              `json:"count"`
		Drafts []api.HookResult `json:"drafts"`
	}](t, w)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "a", resp.Drafts[0].Draft.Hook)
	assert.Equal(t, string(domain.KindTransient), resp.Drafts[1].Kind)

	w = do(t, r, http.MethodPost, "/api/v1/trends/hooks", map[string]any{"analysisId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/trends/hooks", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAnalysis(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	stored, err := store.SaveAnalysis(context.Background(), "buldak", "anthropic", "m", domain.AnalysisResult{TrendName: "x"})
	require.NoError(t, err)

	r := newRouter(api.NewHandler(&fakeCollector{}, &fakeEnricher{}, store, 0.7, nil), api.RouteConfig{})

	w := do(t, r, http.MethodGet, "/api/v1/analyses/"+stored.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "x", decode[domain.StoredAnalysis](t, w).Result.TrendName)

	w = do(t, r, http.MethodGet, "/api/v1/analyses/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVideos(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.saved["ramen"] = okResult(2).Videos
	r := newRouter(api.NewHandler(&fakeCollector{}, &fakeEnricher{}, store, 0.7, nil), api.RouteConfig{})

	w := do(t, r, http.MethodGet, "/api/v1/trends?keyword=ramen&platform=youtube&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/trends", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/trends?keyword=x&platform=vimeo", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/trends?keyword=x&limit=-1", nil).Code)

	noStore := newRouter(api.NewHandler(&fakeCollector{}, &fakeEnricher{}, nil, 0.7, nil), api.RouteConfig{})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, noStore, http.MethodGet, "/api/v1/trends?keyword=x", nil).Code)
}

func TestRoutes_RateLimited(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), nil, nil)
	h := api.NewHandler(&fakeCollector{result: okResult(1)}, &fakeEnricher{}, nil, 0.7, nil)
	r := newRouter(h, api.RouteConfig{
		Limiter:        limiter,
		CollectRule:    ratelimit.Rule{Name: "collect", Window: time.Minute, Max: 2},
		AnalyzeRule:    ratelimit.Rule{Name: "analyze", Window: time.Minute, Max: 1},
		RequestTimeout: time.Second,
	})

	for range 2 {
		w := do(t, r, http.MethodPost, "/api/v1/trends/collect", map[string]any{"keyword": "ramen"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, r, http.MethodPost, "/api/v1/trends/collect", map[string]any{"keyword": "ramen"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get(ratelimit.HeaderRemaining))

	// Listing is not rate limited.
	assert.NotEqual(t, http.StatusTooManyRequests, do(t, r, http.MethodGet, "/api/v1/trends?keyword=ramen", nil).Code)
}
