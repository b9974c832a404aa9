package gin_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/gin"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
)

func TestServer_ServesUntilCancelled(t *testing.T) {
	srv := infragin.NewServerBuilder("trends", 0).
		WithLogger(logger.NewNop()).
		WithShutdownTimeout(time.Second).
		WithRoutes(func(r *gin.Engine) {
			r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		}).
		Build()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "pong", string(body))

	resp, err = http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
