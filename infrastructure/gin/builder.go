package gin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/metrics"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/monitoring"
)

// ServerBuilder provides a fluent API for building HTTP servers.
type ServerBuilder struct {
	config         *Config
	logger         logger.Logger
	setupRoutes    func(*gin.Engine)
	healthChecks   map[string]HealthChecker
	metricsHandler http.Handler
	requestMetrics *metrics.HTTP
}

// NewServerBuilder creates a new server builder with the given configuration.
func NewServerBuilder(serviceName string, port int) *ServerBuilder {
	return &ServerBuilder{
		config:       NewConfig(serviceName, port),
		healthChecks: make(map[string]HealthChecker),
	}
}

// WithLogger sets the logger.
func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

// WithDebug enables or disables debug mode.
func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

// WithVersion sets the service version.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

// WithCORSOrigins sets allowed CORS origins.
func (b *ServerBuilder) WithCORSOrigins(origins []string) *ServerBuilder {
	if len(origins) > 0 {
		b.config.CORS.AllowedOrigins = origins
	}
	return b
}

// WithTimeouts sets the server timeouts. Zero values keep the defaults.
func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	if read > 0 {
		b.config.ReadTimeout = read
	}
	if write > 0 {
		b.config.WriteTimeout = write
	}
	if idle > 0 {
		b.config.IdleTimeout = idle
	}
	return b
}

// WithShutdownTimeout bounds connection draining on shutdown.
func (b *ServerBuilder) WithShutdownTimeout(d time.Duration) *ServerBuilder {
	if d > 0 {
		b.config.ShutdownTimeout = d
	}
	return b
}

// WithHealthCheck adds a named health check.
func (b *ServerBuilder) WithHealthCheck(name string, checker HealthChecker) *ServerBuilder {
	b.healthChecks[name] = checker
	return b
}

// WithDatabaseHealthCheck adds a database health check. The database is a
// hard dependency when configured.
func (b *ServerBuilder) WithDatabaseHealthCheck(ping func() error) *ServerBuilder {
	return b.WithHealthCheck("database", PingChecker("database", HealthStatusUnhealthy, ping))
}

// WithRedisHealthCheck adds a Redis health check. Cache and limiter fail
// open, so a Redis outage only degrades the service.
func (b *ServerBuilder) WithRedisHealthCheck(ping func() error) *ServerBuilder {
	return b.WithHealthCheck("redis", PingChecker("redis", HealthStatusDegraded, ping))
}

// WithMemoryHealthCheck reports degraded while m's last check found
// memory or goroutine growth.
func (b *ServerBuilder) WithMemoryHealthCheck(m *monitoring.MemoryMonitor) *ServerBuilder {
	return b.WithHealthCheck("memory", func() CheckResult {
		if report := m.LastReport(); report != "" {
			return CheckResult{Status: HealthStatusDegraded, Message: report}
		}
		return CheckResult{Status: HealthStatusHealthy}
	})
}

// WithMetrics exposes h at GET /metrics.
func (b *ServerBuilder) WithMetrics(h http.Handler) *ServerBuilder {
	b.metricsHandler = h
	return b
}

// WithRequestMetrics records per-route request metrics.
func (b *ServerBuilder) WithRequestMetrics(m *metrics.HTTP) *ServerBuilder {
	b.requestMetrics = m
	return b
}

// WithRoutes sets the route setup function.
func (b *ServerBuilder) WithRoutes(setupRoutes func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setupRoutes
	return b
}

// Build creates the server with all configured options.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.Must(logger.Config{
			Level:       "info",
			Development: b.config.Debug,
		})
	}

	wrappedSetup := func(router *gin.Engine) {
		// Must precede route registration to apply to every route.
		if b.requestMetrics != nil {
			router.Use(b.requestMetrics.Middleware())
		}

		RegisterHealthRoutes(router, HealthOptions{
			ServiceName:    b.config.ServiceName,
			ServiceVersion: b.config.ServiceVersion,
			Checks:         b.healthChecks,
		})

		if b.metricsHandler != nil {
			router.GET("/metrics", gin.WrapH(b.metricsHandler))
		}

		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}
	}

	return NewServer(b.config, b.logger, wrappedSetup)
}
