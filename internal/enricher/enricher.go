package enricher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/retry"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/cache"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/telemetry"
)

// Defaults for Generate.
const (
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = time.Second
	DefaultTemperature = 0.7
	// VariationConcurrency bounds parallel requests in GenerateVariations.
	VariationConcurrency = 3
)

// UsageSink receives one record per Generate call, success or not.
type UsageSink interface {
	RecordUsage(ctx context.Context, rec domain.UsageRecord) error
}

// Options tunes one Generate call.
type Options struct {
	Config ProviderConfig
	// Temperature is sent as given, zero included. Nil selects
	// DefaultTemperature.
	Temperature *float64
	// MaxRetries is the total number of provider attempts.
	MaxRetries int
	MaxTokens  int
	// CacheTTL overrides the cache default.
	CacheTTL time.Duration
}

// Usage is the token accounting of the provider calls behind a result.
type Usage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// Result is the outcome of Generate. Object is nil whenever Err is set. Usage
// is nil on a cache hit.
type Result[T any] struct {
	Object   *T
	Usage    *Usage
	Err      error
	CacheHit bool
	Attempts int
}

// Config configures an Enricher.
type Config struct {
	// RetryDelay is the linear backoff step between attempts.
	RetryDelay time.Duration
	// Default selects the provider and model when Options.Config is nil.
	Default ProviderConfig
	// MaxRetries and CacheTTL apply when Options leaves them zero.
	MaxRetries int
	CacheTTL   time.Duration
}

// Enricher runs schema-validated generations against registered providers.
type Enricher struct {
	providers map[string]Provider
	cache     *cache.ResponseCache
	usage     UsageSink
	validate  *validator.Validate
	cfg       Config
	log       logger.Logger
	metrics   *telemetry.Provider
	now       func() time.Time
}

// New creates an Enricher. cache and usage may be nil.
func New(providers []Provider, rc *cache.ResponseCache, usage UsageSink, cfg Config, log logger.Logger, metrics *telemetry.Provider) *Enricher {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Default == nil {
		cfg.Default = Anthropic{Model: DefaultAnthropicModel}
	}
	if log == nil {
		log = logger.NewNop()
	}

	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Enricher{
		providers: byName,
		cache:     rc,
		usage:     usage,
		validate:  newValidator(),
		cfg:       cfg,
		log:       log.With(logger.Component("enricher")),
		metrics:   metrics,
		now:       time.Now,
	}
}

// DefaultConfig returns the provider selection used when a call names none.
func (e *Enricher) DefaultConfig() ProviderConfig {
	return e.cfg.Default
}

// Generate asks the configured provider for a JSON object matching schema.
// A cached object for the same fingerprint is returned without a provider
// call. Transient provider errors are retried with linear backoff; schema
// violations and other errors end the call at once.
func Generate[T any](ctx context.Context, e *Enricher, messages []Message, schema Schema[T], opts Options) Result[T] {
	if opts.Config == nil {
		opts.Config = e.cfg.Default
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = e.cfg.MaxRetries
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = e.cfg.CacheTTL
	}

	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	providerName, model := opts.Config.Provider(), opts.Config.ModelName()
	op := "enricher.generate." + schema.Name
	start := e.now()

	provider, ok := e.providers[providerName]
	if !ok {
		err := domain.MissingCredential(op, "", envVarFor(providerName))
		e.finish(ctx, providerName, model, start, 0, nil, false, err)
		return Result[T]{Err: err}
	}

	fp := Fingerprint(messages, providerName, model, temperature)
	if cached, ok := e.cache.Get(ctx, fp); ok {
		var obj T
		if err := json.Unmarshal(cached, &obj); err == nil && checkObject(e.validate, &obj, schema) == nil {
			e.finish(ctx, providerName, model, start, 0, nil, true, nil)
			return Result[T]{Object: &obj, CacheHit: true}
		}
		e.log.Warn("Discarding unreadable cache entry", logger.String("fingerprint", fp))
	}

	var (
		obj      T
		usage    Usage
		attempts int
	)

	rcfg := retry.Config{
		MaxAttempts:  opts.MaxRetries,
		InitialDelay: e.cfg.RetryDelay,
		Backoff:      retry.BackoffLinear,
		IsRetryable:  domain.IsRetryable,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			e.log.Warn("Retrying provider call",
				logger.String("provider", providerName),
				logger.String("model", model),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", delay),
				logger.Error(err),
			)
		},
	}

	err := retry.Retry(ctx, rcfg, func() error {
		attempts++

		completion, err := provider.Complete(ctx, Request{
			Model:       model,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   opts.MaxTokens,
		})
		if err != nil {
			return err
		}
		usage.PromptTokens += completion.PromptTokens
		usage.CompletionTokens += completion.CompletionTokens

		var decoded T
		if err := json.Unmarshal([]byte(extractJSON(completion.Text)), &decoded); err != nil {
			return domain.NewError(domain.KindValidation, op, fmt.Errorf("decode %s: %w", schema.Name, err))
		}
		if err := checkObject(e.validate, &decoded, schema); err != nil {
			return domain.NewError(domain.KindValidation, op, err)
		}

		obj = decoded
		return nil
	})
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	if err != nil {
		if errors.Is(err, retry.ErrContextCancelled) && domain.KindOf(err) == "" {
			err = domain.NewError(domain.KindTransient, op, err)
		}
		e.finish(ctx, providerName, model, start, attempts, &usage, false, err)
		return Result[T]{Usage: &usage, Err: err, Attempts: attempts}
	}

	if encoded, mErr := json.Marshal(obj); mErr == nil {
		e.cache.Set(ctx, fp, encoded, opts.CacheTTL)
	}

	e.finish(ctx, providerName, model, start, attempts, &usage, false, nil)
	return Result[T]{Object: &obj, Usage: &usage, Attempts: attempts}
}

// GenerateVariations runs one Generate per message set, at most
// VariationConcurrency at a time. Each variation retries independently.
// Results are in input order.
func GenerateVariations[T any](ctx context.Context, e *Enricher, variations [][]Message, schema Schema[T], opts Options) []Result[T] {
	results := make([]Result[T], len(variations))
	sem := make(chan struct{}, VariationConcurrency)

	var wg sync.WaitGroup
	for i, messages := range variations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result[T]{Err: domain.NewError(domain.KindTransient, "enricher.variations", ctx.Err())}
				return
			}

			results[i] = Generate(ctx, e, messages, schema, opts)
		}()
	}
	wg.Wait()

	return results
}

func checkObject[T any](v *validator.Validate, obj *T, schema Schema[T]) error {
	if err := v.Struct(obj); err != nil {
		return fmt.Errorf("schema %s: %w", schema.Name, err)
	}
	if schema.Check != nil {
		return schema.Check(obj)
	}
	return nil
}

// finish logs and records usage for one Generate call.
func (e *Enricher) finish(ctx context.Context, provider, model string, start time.Time, attempts int, usage *Usage, cacheHit bool, err error) {
	d := e.now().Sub(start)

	rec := domain.UsageRecord{
		ID:        uuid.NewString(),
		Provider:  provider,
		Model:     model,
		Duration:  d,
		Attempts:  attempts,
		Success:   err == nil,
		CacheHit:  cacheHit,
		CreatedAt: start.UTC(),
	}
	if usage != nil {
		rec.PromptTokens = usage.PromptTokens
		rec.CompletionTokens = usage.CompletionTokens
		rec.TotalTokens = usage.TotalTokens
	}

	outcome := "success"
	fields := []logger.Field{
		logger.String("provider", provider),
		logger.String("model", model),
		logger.Int("attempts", attempts),
		logger.Int64("prompt_tokens", rec.PromptTokens),
		logger.Int64("completion_tokens", rec.CompletionTokens),
		logger.Duration("duration", d),
		logger.Bool("cache_hit", cacheHit),
	}
	switch {
	case err != nil:
		outcome = string(domain.KindOf(err))
		rec.Error = err.Error()
		e.log.Warn("Generation failed", append(fields, logger.Error(err))...)
	case cacheHit:
		outcome = "cache_hit"
		e.log.Debug("Generation served from cache", fields...)
	default:
		e.log.Info("Generation complete", fields...)
	}

	e.metrics.RecordEnrichment(provider, model, outcome, attempts, rec.PromptTokens, rec.CompletionTokens, d)

	if e.usage != nil {
		if sinkErr := e.usage.RecordUsage(ctx, rec); sinkErr != nil {
			e.log.Warn("Failed to record usage", logger.Error(sinkErr))
		}
	}
}
