// Package http builds the outbound HTTP clients used by platform adapters and AI providers.
package http

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 100

	// DefaultMaxIdleConnsPerHost is the default maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10

	// DefaultIdleConnTimeout is the default idle connection timeout
	DefaultIdleConnTimeout = 90 * time.Second

	// DefaultResponseHeaderTimeout is the default response header timeout
	DefaultResponseHeaderTimeout = 30 * time.Second

	// DefaultTLSHandshakeTimeout is the default TLS handshake timeout
	DefaultTLSHandshakeTimeout = 10 * time.Second

	// DefaultUserAgent identifies this service to upstream APIs.
	DefaultUserAgent = "trend-collector/1.0"
)

// ClientConfig configures an HTTP client. Zero fields take defaults.
type ClientConfig struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration

	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	ResponseHeaderTimeout time.Duration
	TLSHandshakeTimeout   time.Duration

	// UserAgent is set on requests that do not carry one.
	UserAgent string
}

// NewClient creates a new HTTP client with standardized configuration.
// If cfg is nil, default values are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          orDefault(cfg.MaxIdleConns, DefaultMaxIdleConns),
		MaxIdleConnsPerHost:   orDefault(cfg.MaxIdleConnsPerHost, DefaultMaxIdleConnsPerHost),
		IdleConnTimeout:       orDefault(cfg.IdleConnTimeout, DefaultIdleConnTimeout),
		ResponseHeaderTimeout: orDefault(cfg.ResponseHeaderTimeout, DefaultResponseHeaderTimeout),
		TLSHandshakeTimeout:   orDefault(cfg.TLSHandshakeTimeout, DefaultTLSHandshakeTimeout),
	}

	return &http.Client{
		Timeout: orDefault(cfg.Timeout, DefaultTimeout),
		Transport: &userAgentTransport{
			base:      transport,
			userAgent: orDefault(cfg.UserAgent, DefaultUserAgent),
		},
	}
}

// NewDefaultClient creates a new HTTP client with all default settings.
func NewDefaultClient() *http.Client {
	return NewClient(nil)
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
