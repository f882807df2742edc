// Package scheduler runs ingestion plans on fixed intervals, one cycle at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/ingest"
)

var (
	ErrBusy     error = apperr.NewConflict("an ingestion cycle is already running")
	ErrDisabled error = apperr.NewConfig("ingest", "ingestion disabled by configuration error")
	ErrStopped  error = apperr.NewConfig("ingest", "scheduler is shutting down")
)

// Runner executes one ingestion cycle.
type Runner interface {
	RunCycle(ctx context.Context, plan ingest.Plan) (*ingest.CycleResult, error)
}

// Counter reports how many articles are stored, for the cold-start check.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Job struct {
	Name     string
	Interval time.Duration
	Plan     ingest.Plan
}

// DefaultJobs is the main job and the category job.
func DefaultJobs(main, categories ingest.Plan, mainInterval, categoryInterval time.Duration) []Job {
	return []Job{
		{Name: main.Name, Interval: mainInterval, Plan: main},
		{Name: categories.Name, Interval: categoryInterval, Plan: categories},
	}
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithCounter(c Counter) Option {
	return func(s *Scheduler) {
		s.counter = c
	}
}

type Scheduler struct {
	Jobs []Job

	runner   Runner
	counter  Counter
	logger   *slog.Logger
	running  sync.Mutex
	disabled atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	runCtx  context.Context
	stopped bool
}

func New(runner Runner, jobs []Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		Jobs:   jobs,
		runner: runner,
		logger: slog.Default(),
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Disabled reports whether a configuration error stopped scheduling.
func (s *Scheduler) Disabled() bool {
	return s.disabled.Load()
}

// Run seeds an empty store with the first job, then ticks every job until ctx is
// done or a configuration error disables scheduling. Run always returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.Jobs) == 0 {
		s.logger.Warn("scheduler has no jobs")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	if s.needsSeed(ctx) {
		s.logger.Info("store is empty, running cold start cycle", "job", s.Jobs[0].Name)
		s.tryRun(ctx, s.Jobs[0])
	}

	for _, job := range s.Jobs {
		if job.Interval <= 0 {
			s.logger.Warn("job has no interval, not scheduled", "job", job.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}

	select {
	case <-ctx.Done():
	case <-s.stop:
		s.logger.Error("ingestion scheduling disabled")
	}
	cancel()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// Trigger runs one cycle of the named job in the background. The cycle outlives
// ctx and is cancelled with Run's context instead. Once Run has returned,
// Trigger refuses with ErrStopped.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	if s.Disabled() {
		return ErrDisabled
	}
	job, ok := s.job(name)
	if !ok {
		return apperr.NewNotFound("job", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if !s.running.TryLock() {
		return ErrBusy
	}
	runCtx := s.runCtx
	if runCtx == nil {
		runCtx = context.WithoutCancel(ctx)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Unlock()
		s.runLocked(runCtx, job)
	}()
	return nil
}

func (s *Scheduler) job(name string) (Job, bool) {
	for _, j := range s.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

func (s *Scheduler) needsSeed(ctx context.Context) bool {
	if s.counter == nil {
		return false
	}
	n, err := s.counter.Count(ctx)
	if err != nil {
		s.logger.Warn("could not count stored articles, skipping cold start", "error", err)
		return false
	}
	return n == 0
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tryRun(ctx, job)
		}
	}
}

// tryRun drops the trigger when another cycle holds the lock.
func (s *Scheduler) tryRun(ctx context.Context, job Job) {
	if s.Disabled() {
		return
	}
	if !s.running.TryLock() {
		s.logger.Info("cycle already running, trigger dropped", "job", job.Name)
		return
	}
	defer s.running.Unlock()
	s.runLocked(ctx, job)
}

func (s *Scheduler) runLocked(ctx context.Context, job Job) {
	err := s.safeRun(ctx, job)
	if err == nil {
		return
	}

	var cfgErr *apperr.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		s.logger.Error("configuration error, disabling ingestion", "job", job.Name, "error", err)
		s.disabled.Store(true)
		s.stopOnce.Do(func() { close(s.stop) })
	case errors.Is(err, ingest.ErrRateLimited):
		s.logger.Warn("cycle skipped after rate limiting", "job", job.Name)
	case errors.Is(err, context.Canceled):
		s.logger.Debug("cycle cancelled", "job", job.Name)
	default:
		s.logger.Error("cycle failed", "job", job.Name, "error", err)
	}
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	_, err = s.runner.RunCycle(ctx, job.Plan)
	return err
}
