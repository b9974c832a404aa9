package gin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the status of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of an individual health check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker performs one dependency check.
type HealthChecker func() CheckResult

// HealthOptions configures the health endpoint behavior.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	StartTime      time.Time
	Checks         map[string]HealthChecker
}

// RegisterHealthRoutes adds GET and HEAD /health. Any unhealthy check turns
// the response into a 503; degraded checks still answer 200.
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}

	router.GET("/health", healthHandler(opts))
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func healthHandler(opts HealthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
			Uptime:  time.Since(opts.StartTime).Truncate(time.Second).String(),
		}

		if len(opts.Checks) > 0 {
			response.Checks = make(map[string]CheckResult, len(opts.Checks))
			for name, checker := range opts.Checks {
				result := checker()
				response.Checks[name] = result

				switch {
				case result.Status == HealthStatusUnhealthy:
					response.Status = HealthStatusUnhealthy
				case result.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy:
					response.Status = HealthStatusDegraded
				}
			}
		}

		statusCode := http.StatusOK
		if response.Status == HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}

// PingChecker wraps a ping function. failStatus is reported when ping errors:
// unhealthy for hard dependencies, degraded for ones the service can run without.
func PingChecker(name string, failStatus HealthStatus, ping func() error) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		err := ping()
		latency := time.Since(start)

		if err != nil {
			return CheckResult{
				Status:  failStatus,
				Message: name + " connection failed",
				Latency: latency.String(),
			}
		}

		return CheckResult{
			Status:  HealthStatusHealthy,
			Message: name + " connection OK",
			Latency: latency.String(),
		}
	}
}
