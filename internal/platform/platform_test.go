package platform_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/errors"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/platform"
)

type payload struct {
	OK bool `json:"ok"`
}

func newBase(url string) *platform.Base {
	return platform.NewBase(platform.Config{
		Name:       "test",
		Platform:   domain.PlatformYouTube,
		APIKey:     "key",
		EnvVar:     "TEST_API_KEY",
		BaseURL:    url,
		RetryDelay: time.Millisecond,
		RPS:        -1,
		IsQuota: func(e *infraerrors.HTTPError) bool {
			return e.Reason == "quotaExceeded"
		},
	})
}

func TestBase_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out payload
	err := newBase(srv.URL).GetJSON(context.Background(), "test.get", srv.URL, nil, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBase_ExhaustedRetriesAreTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newBase(srv.URL).GetJSON(context.Background(), "test.get", srv.URL, nil, &payload{})

	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.KindOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestBase_QuotaIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded"}]}}`))
	}))
	defer srv.Close()

	err := newBase(srv.URL).GetJSON(context.Background(), "test.get", srv.URL, nil, &payload{})

	assert.Equal(t, domain.KindQuotaExceeded, domain.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBase_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newBase(srv.URL).GetJSON(context.Background(), "test.get", srv.URL, nil, &payload{})

	assert.Equal(t, domain.KindPermanent, domain.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBase_MalformedBodyIsValidationFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	err := newBase(srv.URL).GetJSON(context.Background(), "test.get", srv.URL, nil, &payload{})

	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestBase_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := platform.NewBase(platform.Config{
		Name:        "test",
		Platform:    domain.PlatformTikTok,
		APIKey:      "key",
		MaxAttempts: 1,
		RPS:         -1,
	})

	for range 5 {
		_ = b.GetJSON(context.Background(), "test.get", srv.URL, nil, &payload{})
	}
	before := calls.Load()

	err := b.GetJSON(context.Background(), "test.get", srv.URL, nil, &payload{})

	assert.Equal(t, domain.KindTransient, domain.KindOf(err))
	assert.Equal(t, before, calls.Load())
}

func TestBase_CheckCredential(t *testing.T) {
	t.Parallel()

	b := platform.NewBase(platform.Config{Name: "tiktok", Platform: domain.PlatformTikTok, EnvVar: "TIKTOK_API_KEY"})
	err := b.CheckCredential("tiktok.search")

	assert.Equal(t, domain.KindMissingCredential, domain.KindOf(err))
	assert.Contains(t, domain.HintOf(err), "TIKTOK_API_KEY")
}

func TestBase_ParentCancellationStopsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := platform.NewBase(platform.Config{Name: "t", APIKey: "k", RetryDelay: time.Hour, RPS: -1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.GetJSON(ctx, "test.get", srv.URL, nil, &payload{})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
