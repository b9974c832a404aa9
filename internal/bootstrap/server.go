package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/gin"
	infralogger "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/metrics"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/monitoring"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/profiling"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/api"
)

const (
	// writeTimeoutMargin leaves room to write a response after the request
	// deadline fires.
	writeTimeoutMargin = 10 * time.Second

	metricsNamespace = "trends"

	memoryWarmup        = time.Minute
	memoryCheckInterval = 5 * time.Minute
	memoryLeakThreshold = 3.0
)

// NewServer builds the HTTP server for c. mem may be nil.
func NewServer(c *Components, mem *monitoring.MemoryMonitor) *infragin.Server {
	cfg := c.Config
	routes := c.RouteConfig()

	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(c.Logger).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithShutdownTimeout(cfg.Service.ShutdownTimeout).
		WithTimeouts(0, routes.RequestTimeout+writeTimeoutMargin, 0).
		WithMetrics(c.Metrics.Handler()).
		WithRequestMetrics(metrics.NewHTTP(c.Metrics.Registry(), metricsNamespace)).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, c.Handler, routes)
		})

	if c.DB != nil {
		db := c.DB
		builder = builder.WithDatabaseHealthCheck(func() error { return db.Ping() })
	}
	if c.Redis != nil {
		rdb := c.Redis
		builder = builder.WithRedisHealthCheck(func() error {
			return rdb.Ping(context.Background()).Err()
		})
	}

	if mem != nil {
		builder = builder.WithMemoryHealthCheck(mem)
	}

	return builder.Build()
}

// Serve runs the API and the scheduler until ctx is cancelled or a
// shutdown signal arrives.
func Serve(ctx context.Context, c *Components) error {
	if c.Scheduler != nil {
		if err := c.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer c.Scheduler.Stop()
	}

	profiling.Start(ctx, c.Config.Profiling, c.Logger)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	mem := monitoring.NewMemoryMonitor(memoryLeakThreshold)
	go watchMemory(monitorCtx, mem, c.Logger)

	server := NewServer(c, mem)
	c.Logger.Info("Starting trends server",
		infralogger.Int("port", c.Config.Service.Port),
		infralogger.String("version", c.Config.Service.Version),
		infralogger.Bool("scheduler", c.Scheduler != nil),
		infralogger.Bool("database", c.DB != nil),
		infralogger.Bool("redis", c.Redis != nil),
	)

	if err := server.RunWithGracefulShutdown(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// watchMemory takes the baseline after warmup, then checks periodically.
func watchMemory(ctx context.Context, mem *monitoring.MemoryMonitor, log infralogger.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(memoryWarmup):
	}

	mem.EstablishBaseline()
	mem.Run(ctx, memoryCheckInterval, func(report string) {
		log.Warn("Possible memory leak", infralogger.String("report", report))
	})
}
