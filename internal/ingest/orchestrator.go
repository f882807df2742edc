package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/source"
)

const defaultQueryTimeout = 20 * time.Second

// ErrRateLimited means the provider refused further calls and the rest of the cycle was dropped.
var ErrRateLimited = errors.New("ingest: provider rate limit reached")

type Upserter interface {
	Upsert(ctx context.Context, article domain.Article) (*domain.Article, bool, error)
}

// Notifier receives every newly created article.
type Notifier interface {
	Broadcast(ctx context.Context, article *domain.Article)
}

// Indexer mirrors stored articles into a secondary index.
type Indexer interface {
	Index(ctx context.Context, article domain.Article) error
}

type QueryResult struct {
	Query   source.Query `json:"query"`
	Fetched int          `json:"fetched"`
	Stored  int          `json:"stored"`
	Merged  int          `json:"merged"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
	Error   string       `json:"error,omitempty"`
}

type CycleResult struct {
	Plan       string        `json:"plan"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Queries    []QueryResult `json:"queries"`
	Aborted    bool          `json:"aborted"`
}

// Totals sums the per-query counters.
func (r *CycleResult) Totals() QueryResult {
	var t QueryResult
	for _, q := range r.Queries {
		t.Fetched += q.Fetched
		t.Stored += q.Stored
		t.Merged += q.Merged
		t.Skipped += q.Skipped
		t.Failed += q.Failed
	}
	return t
}

type Option func(*Orchestrator)

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

func WithIndexer(i Indexer) Option {
	return func(o *Orchestrator) {
		o.indexer = i
	}
}

func WithPacer(p Pacer) Option {
	return func(o *Orchestrator) {
		o.pacer = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithQueryTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.queryTimeout = d
		}
	}
}

type Orchestrator struct {
	source       source.Source
	store        Upserter
	notifier     Notifier
	indexer      Indexer
	pacer        Pacer
	logger       *slog.Logger
	queryTimeout time.Duration

	mu   sync.RWMutex
	last *CycleResult
}

func NewOrchestrator(src source.Source, store Upserter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:       src,
		store:        store,
		pacer:        NewRatePacer(time.Second),
		logger:       slog.Default(),
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LastResult returns the most recent finished cycle, or nil before the first one.
func (o *Orchestrator) LastResult() *CycleResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// RunCycle runs every query of the plan in order. Per-item failures are counted
// and skipped. A rate-limited provider aborts the rest of the plan with
// ErrRateLimited; a configuration error is returned as is.
func (o *Orchestrator) RunCycle(ctx context.Context, plan Plan) (*CycleResult, error) {
	res := &CycleResult{Plan: plan.Name, StartedAt: time.Now().UTC()}
	defer func() {
		res.FinishedAt = time.Now().UTC()
		o.mu.Lock()
		o.last = res
		o.mu.Unlock()
	}()

	o.logger.Info("ingest cycle started", "plan", plan.Name, "queries", len(plan.Queries))

	for _, q := range plan.Queries {
		if err := o.pacer.Wait(ctx); err != nil {
			return res, err
		}

		qr, err := o.runQuery(ctx, q)
		res.Queries = append(res.Queries, qr)
		if err == nil {
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		var cfgErr *apperr.ConfigError
		if errors.As(err, &cfgErr) {
			o.logger.Error("ingest cycle stopped by configuration error", "plan", plan.Name, "error", err)
			return res, err
		}
		var provErr *source.ProviderError
		if errors.As(err, &provErr) && provErr.IsRateLimited() {
			res.Aborted = true
			o.logger.Warn("provider rate limited, skipping rest of cycle",
				"plan", plan.Name, "query", q.String(), "remaining", len(plan.Queries)-len(res.Queries))
			return res, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		o.logger.Warn("query failed", "plan", plan.Name, "query", q.String(), "error", err)
	}

	t := res.Totals()
	o.logger.Info("ingest cycle completed",
		"plan", plan.Name,
		"duration", time.Since(res.StartedAt),
		"fetched", t.Fetched,
		"stored", t.Stored,
		"merged", t.Merged,
		"skipped", t.Skipped,
		"failed", t.Failed,
	)
	return res, nil
}

func (o *Orchestrator) runQuery(ctx context.Context, q source.Query) (QueryResult, error) {
	qr := QueryResult{Query: q}

	fetchCtx, cancel := context.WithTimeout(ctx, o.queryTimeout)
	raws, err := o.source.Fetch(fetchCtx, q)
	cancel()
	if err != nil {
		qr.Failed = 1
		qr.Error = err.Error()
		return qr, err
	}
	qr.Fetched = len(raws)

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return qr, err
		}

		article := Normalize(raw, o.source.Name())
		if err := article.Validate(); err != nil {
			qr.Skipped++
			o.logger.Debug("skipping invalid article", "query", q.String(), "url", article.URL, "error", err)
			continue
		}

		stored, created, err := o.store.Upsert(ctx, article)
		if err != nil {
			qr.Skipped++
			o.logger.Error("error saving article", "query", q.String(), "url", article.URL, "error", err)
			continue
		}

		if created {
			qr.Stored++
			if o.notifier != nil {
				o.notifier.Broadcast(ctx, stored)
			}
		} else {
			qr.Merged++
		}

		if o.indexer != nil {
			if err := o.indexer.Index(ctx, *stored); err != nil {
				o.logger.Warn("error indexing article", "id", stored.ID, "error", err)
			}
		}
	}

	o.logger.Debug("query completed", "query", q.String(), "fetched", qr.Fetched, "stored", qr.Stored, "merged", qr.Merged, "skipped", qr.Skipped)
	return qr, nil
}
