// Package scheduler collects a watch list of keywords on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/telemetry"
)

// Run outcomes recorded per keyword.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Collector runs a collection.
type Collector interface {
	Collect(ctx context.Context, keyword string, opts domain.CollectOptions) (*domain.TrendCollectionResult, error)
}

// VideoStore persists collected videos.
type VideoStore interface {
	SaveVideos(ctx context.Context, keyword string, videos []domain.NormalizedTrendVideo) error
}

// Config describes the watch list.
type Config struct {
	// Schedule is a standard 5-field cron expression or a descriptor
	// such as @hourly.
	Schedule   string
	Keywords   []string
	Platforms  []domain.Platform
	MaxResults int
	// RunTimeout bounds one keyword's collection. Zero means no bound.
	RunTimeout time.Duration
}

// RunResult is the outcome of one keyword in a run.
type RunResult struct {
	Keyword string
	Videos  int
	Outcome string
	Err     error
}

// Scheduler triggers watch-list collections.
type Scheduler struct {
	cfg       Config
	schedule  cron.Schedule
	cron      *cron.Cron
	collector Collector
	store     VideoStore
	log       logger.Logger
	metrics   *telemetry.Provider

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// New validates cfg and creates a Scheduler. store and metrics may be nil.
func New(cfg Config, c Collector, store VideoStore, log logger.Logger, metrics *telemetry.Provider) (*Scheduler, error) {
	if len(cfg.Keywords) == 0 {
		return nil, errors.New("scheduler: no keywords to watch")
	}

	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse schedule %q: %w", cfg.Schedule, err)
	}

	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.Component("scheduler"))

	cl := cronLogger{log: log}
	return &Scheduler{
		cfg:      cfg,
		schedule: schedule,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		collector: c,
		store:     store,
		log:       log,
		metrics:   metrics,
	}, nil
}

// Start registers the watch list and starts the cron loop. Runs use a
// context derived from ctx and are cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler: already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.RunOnce(s.ctx)
	}))
	s.cron.Start()
	s.running = true

	s.log.Info("Scheduler started",
		logger.String("schedule", s.cfg.Schedule),
		logger.Strings("keywords", s.cfg.Keywords),
		logger.Time("next_run", s.schedule.Next(time.Now())),
	)
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("Scheduler stopped")
}

// RunOnce collects every watched keyword in order and persists the videos.
func (s *Scheduler) RunOnce(ctx context.Context) []RunResult {
	results := make([]RunResult, 0, len(s.cfg.Keywords))
	start := time.Now()

	for _, keyword := range s.cfg.Keywords {
		if ctx.Err() != nil {
			results = append(results, RunResult{Keyword: keyword, Outcome: OutcomeFailed, Err: ctx.Err()})
			s.metrics.RecordScheduledRun(OutcomeFailed)
			continue
		}

		r := s.runKeyword(ctx, keyword)
		s.metrics.RecordScheduledRun(r.Outcome)
		results = append(results, r)
	}

	s.log.Info("Scheduled run finished",
		logger.Int("keywords", len(results)),
		logger.Duration("duration", time.Since(start)),
	)
	return results
}

func (s *Scheduler) runKeyword(ctx context.Context, keyword string) RunResult {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	result, err := s.collector.Collect(ctx, keyword, domain.CollectOptions{
		MaxResults: s.cfg.MaxResults,
		Platforms:  s.cfg.Platforms,
	})
	if err != nil {
		s.log.Error("Scheduled collection failed", logger.String("keyword", keyword), logger.Error(err))
		return RunResult{Keyword: keyword, Outcome: OutcomeFailed, Err: err}
	}

	out := RunResult{Keyword: keyword, Videos: result.TotalVideos, Outcome: OutcomeOK}
	switch {
	case result.AllFailed():
		out.Outcome = OutcomeFailed
		out.Err = fmt.Errorf("all %d platforms failed", len(result.Errors))
	case len(result.Errors) > 0:
		out.Outcome = OutcomePartial
	}

	for _, e := range result.Errors {
		s.log.Warn("Platform failed during scheduled collection",
			logger.String("keyword", keyword),
			logger.String("platform", string(e.Platform)),
			logger.String("kind", string(e.Kind)),
			logger.String("error", e.Error),
		)
	}

	if s.store != nil && result.TotalVideos > 0 {
		if saveErr := s.store.SaveVideos(ctx, keyword, result.Videos); saveErr != nil {
			s.log.Error("Failed to store scheduled videos", logger.String("keyword", keyword), logger.Error(saveErr))
			out.Outcome = OutcomeFailed
			out.Err = saveErr
			return out
		}
	}

	s.log.Info("Scheduled collection complete",
		logger.String("keyword", keyword),
		logger.Int("videos", result.TotalVideos),
		logger.String("outcome", out.Outcome),
	)
	return out
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, logger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, logger.Error(err), logger.Any("details", keysAndValues))
}
