// Package retry provides retry utilities with linear or exponential backoff for transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is returned when max retry attempts are exceeded
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context is cancelled during retry
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// Backoff selects how the delay grows between attempts.
type Backoff int

const (
	// BackoffLinear waits attempt × InitialDelay.
	BackoffLinear Backoff = iota
	// BackoffExponential waits InitialDelay × Multiplier^(attempt-1).
	BackoffExponential
)

// Config configures retry behavior
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the initial attempt)
	MaxAttempts int
	// InitialDelay is the base delay unit
	InitialDelay time.Duration
	// MaxDelay caps the computed delay
	MaxDelay time.Duration
	// Backoff selects linear or exponential growth
	Backoff Backoff
	// Multiplier is the exponential backoff multiplier (default: 2.0)
	Multiplier float64
	// IsRetryable determines if an error should be retried. Required.
	IsRetryable func(error) bool
	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns three attempts with a linear one-second step.
func DefaultConfig(isRetryable func(error) bool) Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Backoff:      BackoffLinear,
		Multiplier:   2.0,
		IsRetryable:  isRetryable,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (c Config) Delay(attempt int) time.Duration {
	var d time.Duration
	switch c.Backoff {
	case BackoffExponential:
		d = time.Duration(float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1)))
	default:
		d = time.Duration(attempt) * c.InitialDelay
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Retry executes fn until it succeeds, returns a non-retryable error or
// MaxAttempts is reached. A non-retryable error is returned unwrapped.
func Retry(ctx context.Context, config Config, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay < 0 {
		config.InitialDelay = 0
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.IsRetryable == nil {
		config.IsRetryable = func(error) bool { return false }
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.IsRetryable(err) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt < config.MaxAttempts {
			delay := config.Delay(attempt)
			if config.OnRetry != nil {
				config.OnRetry(attempt, err, delay)
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, config.MaxAttempts, lastErr)
}
