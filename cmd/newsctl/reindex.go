package main

import (
	"errors"
	"log/slog"

	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/es"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
	"github.com/spf13/cobra"
)

func reindexCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Copy every stored article into the Elasticsearch index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			esCfg := es.LoadEnv()
			if esCfg == nil {
				return errors.New("ES_ADDRESSES is not set")
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			indexer, err := es.NewIndexer(ctx, *esCfg, slog.Default())
			if err != nil {
				return err
			}

			page := pagination.OffsetRequest{Page: 1, Limit: batch}
			sort := storage.Sort{Field: storage.SortCreatedAt}
			var total int
			for {
				items, count, err := store.List(ctx, storage.ArticleFilter{}, page, sort)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					break
				}
				if err := indexer.IndexBulk(ctx, items); err != nil {
					return err
				}
				total += len(items)
				slog.Info("Indexed batch", "page", page.Page, "indexed", total, "of", count)
				page.Page++
			}

			if err := indexer.Refresh(ctx); err != nil {
				return err
			}
			cmd.Printf("Indexed %d article(s) into %s\n", total, esCfg.IndexName)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", pagination.PageMaxSize, "articles per bulk request (max 100)")
	return cmd
}
