// Package telemetry exports Prometheus metrics for collection, enrichment,
// caching and rate limiting.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trends"

// Metrics holds all service Prometheus metrics
type Metrics struct {
	// Collection metrics
	CollectionsTotal   *prometheus.CounterVec
	CollectionDuration prometheus.Histogram
	VideosCollected    *prometheus.CounterVec
	AdapterDuration    *prometheus.HistogramVec
	AdapterErrors      *prometheus.CounterVec

	// Enrichment metrics
	EnrichmentsTotal   *prometheus.CounterVec
	EnrichmentAttempts *prometheus.HistogramVec
	EnrichmentTokens   *prometheus.CounterVec
	EnrichmentDuration *prometheus.HistogramVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Rate limit metrics
	RateLimitDecisions *prometheus.CounterVec

	// Scheduler metrics
	ScheduledRuns *prometheus.CounterVec
}

// Provider owns a registry and the metrics registered on it. A nil
// *Provider is valid and records nothing.
type Provider struct {
	registry *prometheus.Registry
	Metrics  *Metrics
}

// NewProvider creates a registry with Go runtime and process collectors plus
// the service metrics.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		registry: reg,
		Metrics:  initMetrics(promauto.With(reg)),
	}
}

// Registry exposes the underlying registry for metrics owned by other
// packages and for tests.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns the Prometheus HTTP handler for /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func initMetrics(f promauto.Factory) *Metrics {
	m := &Metrics{}
	initCollectionMetrics(f, m)
	initEnrichmentMetrics(f, m)
	initSupportMetrics(f, m)
	return m
}

func initCollectionMetrics(f promauto.Factory, m *Metrics) {
	m.CollectionsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collections_total",
		Help:      "Collection runs by outcome (complete, partial, failed)",
	}, []string{"outcome"})

	m.CollectionDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collection_duration_seconds",
		Help:      "Wall time of a collection run across all adapters",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
	})

	m.VideosCollected = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "videos_collected_total",
		Help:      "Videos kept after normalization and dedup",
	}, []string{"platform"})

	m.AdapterDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "adapter_duration_seconds",
		Help:      "Time spent in one platform adapter search including retries",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"platform"})

	m.AdapterErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adapter_errors_total",
		Help:      "Adapter failures by platform and error kind",
	}, []string{"platform", "kind"})
}

func initEnrichmentMetrics(f promauto.Factory, m *Metrics) {
	m.EnrichmentsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrichments_total",
		Help:      "AI generation calls by provider and outcome (success, cache_hit, failure)",
	}, []string{"provider", "outcome"})

	m.EnrichmentAttempts = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "enrichment_attempts",
		Help:      "Provider calls made per generation",
		Buckets:   []float64{1, 2, 3, 4, 5},
	}, []string{"provider"})

	m.EnrichmentTokens = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrichment_tokens_total",
		Help:      "Tokens consumed by provider, model and direction (prompt, completion)",
	}, []string{"provider", "model", "direction"})

	m.EnrichmentDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "enrichment_duration_seconds",
		Help:      "Wall time of a generation including retries",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"provider"})
}

func initSupportMetrics(f promauto.Factory, m *Metrics) {
	m.CacheLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Response cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	m.RateLimitDecisions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_decisions_total",
		Help:      "Rate limiter decisions by rule and result (allowed, denied)",
	}, []string{"rule", "result"})

	m.ScheduledRuns = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_runs_total",
		Help:      "Scheduled keyword collections by outcome",
	}, []string{"outcome"})
}

// RecordCollection records a finished collection run.
func (p *Provider) RecordCollection(outcome string, d time.Duration, breakdown map[string]int) {
	if p == nil {
		return
	}
	p.Metrics.CollectionsTotal.WithLabelValues(outcome).Inc()
	p.Metrics.CollectionDuration.Observe(d.Seconds())
	for platform, n := range breakdown {
		p.Metrics.VideosCollected.WithLabelValues(platform).Add(float64(n))
	}
}

// RecordAdapter records one adapter search. kind is empty on success.
func (p *Provider) RecordAdapter(platform, kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.AdapterDuration.WithLabelValues(platform).Observe(d.Seconds())
	if kind != "" {
		p.Metrics.AdapterErrors.WithLabelValues(platform, kind).Inc()
	}
}

// RecordEnrichment records one generation.
func (p *Provider) RecordEnrichment(provider, model, outcome string, attempts int, promptTokens, completionTokens int64, d time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.EnrichmentsTotal.WithLabelValues(provider, outcome).Inc()
	p.Metrics.EnrichmentDuration.WithLabelValues(provider).Observe(d.Seconds())
	if attempts > 0 {
		p.Metrics.EnrichmentAttempts.WithLabelValues(provider).Observe(float64(attempts))
	}
	if promptTokens > 0 {
		p.Metrics.EnrichmentTokens.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		p.Metrics.EnrichmentTokens.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordCacheLookup records a cache hit, miss or error.
func (p *Provider) RecordCacheLookup(result string) {
	if p == nil {
		return
	}
	p.Metrics.CacheLookups.WithLabelValues(result).Inc()
}

// RecordRateLimit records a limiter decision for a named rule.
func (p *Provider) RecordRateLimit(rule string, allowed bool) {
	if p == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	p.Metrics.RateLimitDecisions.WithLabelValues(rule, result).Inc()
}

// RecordScheduledRun records one scheduled keyword collection.
func (p *Provider) RecordScheduledRun(outcome string) {
	if p == nil {
		return
	}
	p.Metrics.ScheduledRuns.WithLabelValues(outcome).Inc()
}
