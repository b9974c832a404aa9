// Package ratelimit implements a fixed-window request limiter keyed by caller
// identity, backed by Redis or an in-process store.
package ratelimit

import (
	"context"
	"time"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/telemetry"
)

// keyPrefix namespaces window counters.
const keyPrefix = "trends:ratelimit:"

// Rule is a named fixed-window quota: at most Max requests per Window.
type Rule struct {
	Name   string        `yaml:"name"`
	Window time.Duration `yaml:"window"`
	Max    int           `yaml:"max"`
}

// Decision is the outcome of one Check.
type Decision struct {
	Success   bool  `json:"success"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // unix milliseconds
}

// ResetTime returns Reset as a time.
func (d Decision) ResetTime() time.Time {
	return time.UnixMilli(d.Reset)
}

// Store increments the counter for key, starting a new window of the given
// length when none is active. It returns the count after incrementing and
// the time left in the window. Implementations must be atomic.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Limiter applies rules against a Store. Store failures allow the request.
type Limiter struct {
	store   Store
	log     logger.Logger
	metrics *telemetry.Provider
	now     func() time.Time
}

// New creates a Limiter.
func New(store Store, log logger.Logger, metrics *telemetry.Provider) *Limiter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Limiter{
		store:   store,
		log:     log.With(logger.Component("rate-limiter")),
		metrics: metrics,
		now:     time.Now,
	}
}

// Check counts one request by identifier against rule. The (Max+1)th request
// in a window is the first one denied.
func (l *Limiter) Check(ctx context.Context, identifier string, rule Rule) Decision {
	now := l.now()

	count, ttl, err := l.store.Increment(ctx, keyPrefix+rule.Name+":"+identifier, rule.Window)
	if err != nil {
		l.log.Warn("Rate limit store unavailable, allowing request",
			logger.String("rule", rule.Name),
			logger.String("identifier", identifier),
			logger.Error(err),
		)
		l.metrics.RecordRateLimit(rule.Name, true)
		return Decision{
			Success:   true,
			Limit:     rule.Max,
			Remaining: rule.Max,
			Reset:     now.Add(rule.Window).UnixMilli(),
		}
	}

	if ttl <= 0 {
		ttl = rule.Window
	}

	d := Decision{
		Success:   count <= int64(rule.Max),
		Limit:     rule.Max,
		Remaining: max(rule.Max-int(count), 0),
		Reset:     now.Add(ttl).UnixMilli(),
	}
	l.metrics.RecordRateLimit(rule.Name, d.Success)

	return d
}
