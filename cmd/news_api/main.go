// Package main News Feed API
// @title News Feed API
// @version 1.0
// @description Aggregates news from external providers, tags articles by category and serves them over REST and a live WebSocket stream
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.email support@newsfeed.dev
// @license.name Apache 2.0
// @license.url https://opensource.org/licenses/Apache-2.0
// @BasePath /
package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/DjordjeVuckovic/news-feed/docs"
	"github.com/DjordjeVuckovic/news-feed/internal/ingest"
	"github.com/DjordjeVuckovic/news-feed/internal/realtime"
	"github.com/DjordjeVuckovic/news-feed/internal/router"
	"github.com/DjordjeVuckovic/news-feed/internal/scheduler"
	"github.com/DjordjeVuckovic/news-feed/internal/server"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/es"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/factory"
	pkgserver "github.com/DjordjeVuckovic/news-feed/pkg/server"
	"github.com/labstack/echo/v4"
)

func main() {
	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)
	logger := slog.Default()

	store, err := factory.NewStore(context.Background(), cfg.StorageConfig)
	if err != nil {
		slog.Error("Failed to open storage", "type", cfg.StorageConfig.Type, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	s := server.New(cfg.Server, pkgserver.NewPingHealthChecker(store)).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupOpenApi("/swagger/*")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "News Feed API is running")
	})

	hub := realtime.NewHub(realtime.WithLogger(logger))
	go hub.Run(s.Context())

	ingestOpts := []ingest.Option{
		ingest.WithNotifier(hub),
		ingest.WithPacer(ingest.NewRatePacer(cfg.Ingest.Pacing)),
		ingest.WithQueryTimeout(cfg.Ingest.ProviderTimeout),
		ingest.WithLogger(logger),
	}
	var routerOpts []router.ArticleRouterOption
	if cfg.Search != nil {
		indexer, searcher, err := newSearch(s.Context(), cfg.Search, logger)
		if err != nil {
			slog.Warn("Full-text search disabled", "error", err)
		} else {
			ingestOpts = append(ingestOpts, ingest.WithIndexer(indexer))
			routerOpts = append(routerOpts, router.WithSearcher(searcher))
			slog.Info("Full-text search enabled", "index", cfg.Search.IndexName)
		}
	}

	var (
		trigger   router.Trigger
		reporter  router.CycleReporter
		schedDone = make(chan struct{})
	)
	if sched, orch := newIngestion(cfg.Ingest, store, logger, ingestOpts...); sched != nil {
		go func() {
			defer close(schedDone)
			_ = sched.Run(s.Context())
		}()
		trigger, reporter = sched, orch
	} else {
		close(schedDone)
	}

	router.NewArticleRouter(s.Echo, store, store, routerOpts...).Bind()
	router.NewNewsletterRouter(s.Echo, store).Bind()
	router.NewIngestRouter(s.Echo, trigger, reporter, ingest.MainPlanName).Bind()
	router.NewRealtimeRouter(s.Echo, hub, cfg.Server.CorsOrigins).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, cleaning up resources...")
	}()

	err = s.Start()
	// Start cancels s.Context() on return, so in-flight cycles finish before the store closes.
	<-schedDone
	if err != nil {
		s.Echo.Logger.Error("Failed to start server: ", err)
		os.Exit(1)
	}
}

func newSearch(ctx context.Context, cfg *es.ClientConfig, logger *slog.Logger) (*es.Indexer, *es.Searcher, error) {
	indexer, err := es.NewIndexer(ctx, *cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	searcher, err := es.NewSearcher(*cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return indexer, searcher, nil
}

// newIngestion returns nil when ingestion is switched off or no provider is configured.
func newIngestion(cfg *ingest.Config, store storage.Store, logger *slog.Logger, opts ...ingest.Option) (*scheduler.Scheduler, *ingest.Orchestrator) {
	if !cfg.Enabled {
		slog.Info("Ingestion disabled by INGEST_ENABLED")
		return nil, nil
	}
	src, err := ingest.NewSource(cfg, logger)
	if err != nil {
		slog.Warn("Ingestion not scheduled", "error", err)
		return nil, nil
	}

	orch := ingest.NewOrchestrator(src, store, opts...)
	jobs := scheduler.DefaultJobs(cfg.MainPlan(), cfg.CategoryPlan(), cfg.Interval, cfg.CategoryInterval)
	sched := scheduler.New(orch, jobs, scheduler.WithCounter(store), scheduler.WithLogger(logger))
	slog.Info("Ingestion scheduled", "source", src.Name(), "interval", cfg.Interval, "categoryInterval", cfg.CategoryInterval)
	return sched, orch
}
