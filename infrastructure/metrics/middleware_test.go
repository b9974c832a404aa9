package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/metrics"
)

func TestMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTP(reg, "test")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	expected := `
# HELP test_http_requests_total Total number of HTTP requests
# TYPE test_http_requests_total counter
test_http_requests_total{method="GET",route="/items/:id",status="200"} 2
test_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_http_requests_total"))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_http_request_duration_seconds")
	assert.Contains(t, names, "test_http_active_requests")
}
