package platform

import (
	"time"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
)

// Option configures an adapter.
type Option func(*Config)

// Apply runs opts over cfg.
func (cfg *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(cfg)
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *Config) {
		if u != "" {
			c.BaseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Config) { c.HTTPClient = h }
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry sets attempts and the linear backoff step.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxAttempts = attempts
		c.RetryDelay = delay
	}
}

// WithRateLimit paces outbound calls. rps < 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Config) {
		c.RPS = rps
		c.Burst = burst
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithRegion biases results toward a country code where the API supports it.
func WithRegion(code string) Option {
	return func(c *Config) { c.Region = code }
}
