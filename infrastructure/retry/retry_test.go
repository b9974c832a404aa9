package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/retry"
)

var errFlaky = errors.New("flaky")

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func fastConfig() retry.Config {
	cfg := retry.DefaultConfig(isFlaky)
	cfg.InitialDelay = time.Millisecond
	return cfg
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Retry(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	permanent := errors.New("bad request")
	calls := 0
	err := retry.Retry(context.Background(), fastConfig(), func() error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.NotErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustionKeepsLastError(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Retry(context.Background(), fastConfig(), func() error {
		calls++
		return errFlaky
	})

	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	cfg := retry.DefaultConfig(isFlaky)
	cfg.InitialDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	err := retry.Retry(ctx, cfg, func() error { return errFlaky })

	require.ErrorIs(t, err, retry.ErrContextCancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Delay(t *testing.T) {
	t.Parallel()

	linear := retry.Config{InitialDelay: time.Second}
	assert.Equal(t, time.Second, linear.Delay(1))
	assert.Equal(t, 2*time.Second, linear.Delay(2))

	exp := retry.Config{InitialDelay: 100 * time.Millisecond, Backoff: retry.BackoffExponential, Multiplier: 2, MaxDelay: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, exp.Delay(1))
	assert.Equal(t, 200*time.Millisecond, exp.Delay(2))
	assert.Equal(t, 300*time.Millisecond, exp.Delay(3))
}
