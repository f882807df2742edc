package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-feed/internal/ingest"
	"github.com/DjordjeVuckovic/news-feed/internal/source"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/es"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/factory"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run ingestion outside the API server",
	}

	var plan string
	once := &cobra.Command{
		Use:   "once",
		Short: "Run a single ingestion cycle and print its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ingest.LoadConfig()
			if err != nil {
				return err
			}
			var p ingest.Plan
			switch plan {
			case ingest.MainPlanName:
				p = cfg.MainPlan()
			case ingest.CategoryPlanName:
				p = cfg.CategoryPlan()
			default:
				return fmt.Errorf("unknown plan %q, expected %s or %s", plan, ingest.MainPlanName, ingest.CategoryPlanName)
			}

			src, err := ingest.NewSource(cfg, slog.Default())
			if err != nil {
				return err
			}
			return runCycle(cmd, src, p, ingest.NewRatePacer(cfg.Pacing))
		},
	}
	once.Flags().StringVar(&plan, "plan", ingest.MainPlanName, "plan to run: main or categories")
	cmd.AddCommand(once)

	return cmd
}

func importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import articles from a CSV file",
		Long: `Import articles from a CSV file with a header row.

Recognized columns: title, description, content, url, image_url, source, author,
category, published_at. Rows are classified and merged by url like any other
ingested article.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := ingest.Plan{Name: "import", Queries: []source.Query{source.Top()}}
			return runCycle(cmd, source.NewCSV(file), plan, ingest.NoopPacer{})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the CSV file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runCycle(cmd *cobra.Command, src source.Source, plan ingest.Plan, pacer ingest.Pacer) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []ingest.Option{ingest.WithPacer(pacer)}
	if esCfg := es.LoadEnv(); esCfg != nil {
		indexer, err := es.NewIndexer(ctx, *esCfg, slog.Default())
		if err != nil {
			slog.Warn("Search index not updated", "error", err)
		} else {
			opts = append(opts, ingest.WithIndexer(indexer))
		}
	}

	res, runErr := ingest.NewOrchestrator(src, store, opts...).RunCycle(ctx, plan)
	if res != nil {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
	}
	if errors.Is(runErr, ingest.ErrRateLimited) {
		slog.Warn("Cycle cut short by provider rate limit")
		return nil
	}
	return runErr
}

func openStore(ctx context.Context) (storage.Store, error) {
	cfg, err := factory.LoadEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Type == storage.InMem {
		slog.Warn("in_mem storage does not persist between runs")
	}
	return factory.NewStore(ctx, cfg)
}
