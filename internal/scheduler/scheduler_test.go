package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, plan ingest.Plan) (*ingest.CycleResult, error)

func (f runnerFunc) RunCycle(ctx context.Context, plan ingest.Plan) (*ingest.CycleResult, error) {
	return f(ctx, plan)
}

type fixedCounter int64

func (c fixedCounter) Count(context.Context) (int64, error) { return int64(c), nil }

func jobs(interval time.Duration) []Job {
	return []Job{
		{Name: "main", Interval: interval, Plan: ingest.Plan{Name: "main"}},
		{Name: "categories", Interval: interval, Plan: ingest.Plan{Name: "categories"}},
	}
}

func runAsync(t *testing.T, s *Scheduler, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func TestRun_ColdStartSeedsEmptyStore(t *testing.T) {
	plans := make(chan string, 4)
	runner := runnerFunc(func(_ context.Context, plan ingest.Plan) (*ingest.CycleResult, error) {
		plans <- plan.Name
		return &ingest.CycleResult{}, nil
	})
	s := New(runner, jobs(time.Hour), WithCounter(fixedCounter(0)))
	ctx, cancel := context.WithCancel(context.Background())

	done := runAsync(t, s, ctx)

	select {
	case name := <-plans:
		assert.Equal(t, "main", name)
	case <-time.After(time.Second):
		t.Fatal("cold start cycle did not run")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestRun_NoSeedWhenStoreHasArticles(t *testing.T) {
	var calls atomic.Int32
	runner := runnerFunc(func(context.Context, ingest.Plan) (*ingest.CycleResult, error) {
		calls.Add(1)
		return &ingest.CycleResult{}, nil
	})
	s := New(runner, jobs(time.Hour), WithCounter(fixedCounter(3)))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.Zero(t, calls.Load())
}

func TestRun_ConfigErrorDisablesScheduling(t *testing.T) {
	var calls atomic.Int32
	runner := runnerFunc(func(context.Context, ingest.Plan) (*ingest.CycleResult, error) {
		calls.Add(1)
		return nil, fmt.Errorf("fetch: %w", apperr.NewConfig("NEWS_API_KEY", "missing"))
	})
	s := New(runner, jobs(10*time.Millisecond), WithCounter(fixedCounter(0)))

	done := runAsync(t, s, context.Background())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after a configuration error")
	}
	assert.True(t, s.Disabled())
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, s.Trigger(context.Background(), "main"), ErrDisabled)
}

func TestRun_RecoversFromPanicsAndKeepsTicking(t *testing.T) {
	var calls atomic.Int32
	runner := runnerFunc(func(context.Context, ingest.Plan) (*ingest.CycleResult, error) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return &ingest.CycleResult{}, nil
	})
	s := New(runner, jobs(10*time.Millisecond)[:1])
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.False(t, s.Disabled())
}

func TestRun_RateLimitIsNotFatal(t *testing.T) {
	var calls atomic.Int32
	runner := runnerFunc(func(context.Context, ingest.Plan) (*ingest.CycleResult, error) {
		calls.Add(1)
		return &ingest.CycleResult{Aborted: true}, ingest.ErrRateLimited
	})
	s := New(runner, jobs(10*time.Millisecond)[:1])
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.False(t, s.Disabled())
}

func TestTrigger_DropsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	runner := runnerFunc(func(ctx context.Context, _ ingest.Plan) (*ingest.CycleResult, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return &ingest.CycleResult{}, nil
	})
	s := New(runner, jobs(time.Hour))

	require.NoError(t, s.Trigger(context.Background(), "main"))
	<-started

	err := s.Trigger(context.Background(), "categories")
	assert.ErrorIs(t, err, ErrBusy)
	var conflict *apperr.ConflictError
	assert.True(t, errors.As(err, &conflict))

	close(release)
	assert.Eventually(t, func() bool {
		return s.Trigger(context.Background(), "main") == nil
	}, time.Second, 10*time.Millisecond)
	<-started
	assert.Equal(t, int32(2), calls.Load())
}

func TestTrigger_RefusedAfterRunReturns(t *testing.T) {
	var calls atomic.Int32
	runner := runnerFunc(func(context.Context, ingest.Plan) (*ingest.CycleResult, error) {
		calls.Add(1)
		return &ingest.CycleResult{}, nil
	})
	s := New(runner, jobs(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(t, s, ctx)

	cancel()
	require.NoError(t, <-done)
	err := s.Trigger(context.Background(), "main")

	assert.ErrorIs(t, err, ErrStopped)
	var cfgErr *apperr.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, calls.Load())
}

func TestTrigger_ConcurrentWithShutdown(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, _ ingest.Plan) (*ingest.CycleResult, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return &ingest.CycleResult{}, nil
		}
	})
	s := New(runner, jobs(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(t, s, ctx)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Trigger(context.Background(), "main")
			if err != nil {
				assert.True(t, errors.Is(err, ErrBusy) || errors.Is(err, ErrStopped), err)
			}
		}()
	}
	cancel()
	wg.Wait()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTrigger_UnknownJob(t *testing.T) {
	s := New(runnerFunc(func(context.Context, ingest.Plan) (*ingest.CycleResult, error) {
		return nil, nil
	}), jobs(time.Hour))

	var nf *apperr.NotFoundError
	assert.ErrorAs(t, s.Trigger(context.Background(), "nope"), &nf)
}

func TestRun_OneCycleAtATime(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	runner := runnerFunc(func(context.Context, ingest.Plan) (*ingest.CycleResult, error) {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
		time.Sleep(15 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return &ingest.CycleResult{}, nil
	})
	s := New(runner, jobs(5*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 1, maxSeen)
}

func TestDefaultJobs(t *testing.T) {
	got := DefaultJobs(ingest.DefaultPlan(), ingest.CategoryPlan(), 15*time.Minute, time.Hour)

	require.Len(t, got, 2)
	assert.Equal(t, "main", got[0].Name)
	assert.Equal(t, 15*time.Minute, got[0].Interval)
	assert.Equal(t, "categories", got[1].Name)
	assert.Equal(t, time.Hour, got[1].Interval)
}
