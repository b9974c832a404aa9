package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/ratelimit"
)

var collectRule = ratelimit.Rule{Name: "collect", Window: 60 * time.Second, Max: 5}

func redisStore(t *testing.T) (*ratelimit.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return ratelimit.NewRedisStore(client), mr
}

func TestLimiter_FixedWindow(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) ratelimit.Store{
		"redis": func(t *testing.T) ratelimit.Store {
			s, _ := redisStore(t)
			return s
		},
		"memory": func(*testing.T) ratelimit.Store { return ratelimit.NewMemoryStore() },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := ratelimit.New(newStore(t), nil, nil)
			ctx := context.Background()
			now := time.Now()

			first := l.Check(ctx, "user:1", collectRule)
			assert.True(t, first.Success)
			assert.Equal(t, 5, first.Limit)
			assert.Equal(t, 4, first.Remaining)
			assert.GreaterOrEqual(t, first.Reset, now.UnixMilli())

			for range 4 {
				require.True(t, l.Check(ctx, "user:1", collectRule).Success)
			}

			sixth := l.Check(ctx, "user:1", collectRule)
			assert.False(t, sixth.Success)
			assert.Equal(t, 0, sixth.Remaining)
			assert.GreaterOrEqual(t, sixth.Reset, now.UnixMilli())

			other := l.Check(ctx, "user:2", collectRule)
			assert.True(t, other.Success, "identifiers are counted separately")
		})
	}
}

func TestRedisStore_WindowExpires(t *testing.T) {
	t.Parallel()

	store, mr := redisStore(t)
	ctx := context.Background()

	count, ttl, err := store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)

	count, _, err = store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mr.FastForward(61 * time.Second)

	count, _, err = store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStore_RepairsMissingExpiry(t *testing.T) {
	t.Parallel()

	store, mr := redisStore(t)
	require.NoError(t, mr.Set("k", "3"))

	count, ttl, err := store.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, time.Minute, ttl)
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestMemoryStore_WindowExpires(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	_, _, _ = store.Increment(context.Background(), "k", time.Minute)
	count, ttl, _ := store.Increment(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, time.Minute, ttl)

	now = now.Add(time.Minute)
	count, _, _ = store.Increment(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(1), count)
}

type brokenStore struct{}

func (brokenStore) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

func TestLimiter_FailsOpen(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(brokenStore{}, nil, nil)

	d := l.Check(context.Background(), "ip:1.2.3.4", collectRule)
	assert.True(t, d.Success)
	assert.Equal(t, 5, d.Remaining)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	l := ratelimit.New(ratelimit.NewMemoryStore(), nil, nil)
	r := gin.New()
	r.POST("/collect", ratelimit.Middleware(l, ratelimit.Rule{Name: "collect", Window: time.Minute, Max: 1}),
		func(c *gin.Context) { c.Status(http.StatusAccepted) })

	call := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/collect", http.NoBody)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	first := call()
	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, "1", first.Header().Get(ratelimit.HeaderLimit))
	assert.Equal(t, "0", first.Header().Get(ratelimit.HeaderRemaining))
	assert.NotEmpty(t, first.Header().Get(ratelimit.HeaderReset))

	second := call()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate limit exceeded")
}
