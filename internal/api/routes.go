package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	infrajwt "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/jwt"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/ratelimit"
)

// RouteConfig wires cross-cutting concerns into the routes.
type RouteConfig struct {
	Limiter     *ratelimit.Limiter
	CollectRule ratelimit.Rule
	AnalyzeRule ratelimit.Rule
	// JWTSecret enables caller identification by token subject.
	JWTSecret string
	// RequestTimeout bounds collection and enrichment requests.
	RequestTimeout time.Duration
}

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, h *Handler, cfg RouteConfig) {
	v1 := router.Group("/api/v1")
	if cfg.JWTSecret != "" {
		v1.Use(infrajwt.OptionalMiddleware(cfg.JWTSecret))
	}

	collect := []gin.HandlerFunc{}
	analyze := []gin.HandlerFunc{}
	if cfg.Limiter != nil {
		collect = append(collect, ratelimit.Middleware(cfg.Limiter, cfg.CollectRule))
		analyze = append(analyze, ratelimit.Middleware(cfg.Limiter, cfg.AnalyzeRule))
	}
	if cfg.RequestTimeout > 0 {
		collect = append(collect, timeoutMiddleware(cfg.RequestTimeout))
		analyze = append(analyze, timeoutMiddleware(cfg.RequestTimeout))
	}

	trends := v1.Group("/trends")
	{
		trends.GET("", h.ListVideos)                                  // GET /api/v1/trends
		trends.POST("/collect", append(collect, h.Collect)...)        // POST /api/v1/trends/collect
		trends.POST("/analyze", append(clone(analyze), h.Analyze)...) // POST /api/v1/trends/analyze
		trends.POST("/hooks", append(clone(analyze), h.Hooks)...)     // POST /api/v1/trends/hooks
	}

	v1.GET("/analyses/:id", h.GetAnalysis) // GET /api/v1/analyses/:id
}

// timeoutMiddleware bounds the request context. Handlers observe the
// deadline through the context passed to collection and provider calls.
func timeoutMiddleware(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func clone(hs []gin.HandlerFunc) []gin.HandlerFunc {
	return append([]gin.HandlerFunc(nil), hs...)
}
