// Package platform holds the transport shared by the short-form video search
// adapters: credential checks, outbound pacing, a circuit breaker, retries and
// error classification.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/circuitbreaker"
	infraerrors "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/errors"
	infrahttp "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/http"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/retry"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// Client searches one platform for short-form videos.
type Client interface {
	// Name is the adapter name recorded as a video's source.
	Name() string
	// Platform is the platform the adapter is registered for.
	Platform() domain.Platform
	Search(ctx context.Context, keyword string, filters domain.SearchFilters) ([]domain.RawItem, error)
}

// HTTPClient allows injecting a transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Defaults shared by every adapter.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
	DefaultRPS         = 5.0
	maxResponseBody    = 8 << 20
)

// Config configures a Base. Zero values take defaults.
type Config struct {
	Name     string
	Platform domain.Platform
	APIKey   string
	// EnvVar names the variable holding APIKey, used in the remediation hint.
	EnvVar  string
	BaseURL string
	// Region is a country code passed to APIs that accept one.
	Region string

	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	// RPS paces outbound calls. Negative disables pacing.
	RPS   float64
	Burst int

	HTTPClient HTTPClient
	Logger     logger.Logger

	// IsQuota reports whether an HTTP error means the API quota is used up.
	IsQuota func(*infraerrors.HTTPError) bool
}

// Base implements the request path shared by adapters.
type Base struct {
	cfg     Config
	http    HTTPClient
	limiter *rate.Limiter
	breaker *circuitbreaker.Breaker
	log     logger.Logger
}

// NewBase builds a Base from cfg.
func NewBase(cfg Config) *Base {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.RPS == 0 {
		cfg.RPS = DefaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IsQuota == nil {
		cfg.IsQuota = func(*infraerrors.HTTPError) bool { return false }
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Timeout})
	}

	limit := rate.Limit(cfg.RPS)
	if cfg.RPS < 0 {
		limit = rate.Inf
	}

	b := &Base{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		log:     log.With(logger.Component("platform"), logger.String("platform", string(cfg.Platform))),
	}

	bcfg := circuitbreaker.DefaultConfig(cfg.Name)
	bcfg.IsFailure = domain.IsRetryable
	bcfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		b.log.Warn("Circuit breaker state changed",
			logger.String("adapter", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}
	b.breaker = circuitbreaker.New(bcfg)

	return b
}

// Name returns the adapter name.
func (b *Base) Name() string { return b.cfg.Name }

// Platform returns the adapter's platform.
func (b *Base) Platform() domain.Platform { return b.cfg.Platform }

// Region returns the configured country code.
func (b *Base) Region() string { return b.cfg.Region }

// BaseURL returns the configured API root.
func (b *Base) BaseURL() string { return b.cfg.BaseURL }

// APIKey returns the configured credential.
func (b *Base) APIKey() string { return b.cfg.APIKey }

// Logger returns the adapter-scoped logger.
func (b *Base) Logger() logger.Logger { return b.log }

// CheckCredential fails fast when no API key is configured.
func (b *Base) CheckCredential(op string) error {
	if b.cfg.APIKey == "" {
		return domain.MissingCredential(op, b.cfg.Platform, b.cfg.EnvVar)
	}
	return nil
}

// GetJSON performs a paced, retried, circuit-protected GET and decodes the
// body into out. Every returned error is a classified *domain.Error.
func (b *Base) GetJSON(ctx context.Context, op, url string, header http.Header, out any) error {
	rcfg := retry.Config{
		MaxAttempts:  b.cfg.MaxAttempts,
		InitialDelay: b.cfg.RetryDelay,
		Backoff:      retry.BackoffLinear,
		IsRetryable:  domain.IsRetryable,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			b.log.Warn("Retrying platform request",
				logger.String("op", op),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", delay),
				logger.Error(err),
			)
		},
	}

	err := b.breaker.Execute(ctx, func() error {
		return retry.Retry(ctx, rcfg, func() error {
			return b.getOnce(ctx, op, url, header, out)
		})
	})
	if err == nil {
		return nil
	}

	if domain.KindOf(err) == "" {
		// Open circuit or cancellation outside an attempt.
		return b.classify(op, err)
	}
	return err
}

func (b *Base) getOnce(ctx context.Context, op, url string, header http.Header, out any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return b.classify(op, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return domain.NewError(domain.KindPermanent, op, fmt.Errorf("build request: %w", err)).WithPlatform(b.cfg.Platform)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return b.classify(op, err)
	}
	defer resp.Body.Close()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return b.classify(op, httpErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return b.classify(op, fmt.Errorf("read response: %w", err))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewError(domain.KindValidation, op, fmt.Errorf("decode response: %w", err)).WithPlatform(b.cfg.Platform)
	}

	return nil
}

// classify maps a transport failure to a domain error kind.
func (b *Base) classify(op string, err error) error {
	kind := domain.KindPermanent

	var httpErr *infraerrors.HTTPError
	var netErr net.Error
	switch {
	case errors.As(err, &httpErr):
		switch {
		case b.cfg.IsQuota(httpErr):
			kind = domain.KindQuotaExceeded
		case httpErr.Temporary(), httpErr.StatusCode == http.StatusRequestTimeout:
			kind = domain.KindTransient
		}
	case errors.Is(err, circuitbreaker.ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr):
		kind = domain.KindTransient
	}

	return domain.NewError(kind, op, err).WithPlatform(b.cfg.Platform)
}
