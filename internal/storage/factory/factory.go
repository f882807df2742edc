package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/in_mem"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/pg"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/sqlite"
)

// NewStore opens the store selected by cfg.Type. SQL stores are migrated on open.
func NewStore(ctx context.Context, cfg *StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case storage.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("missing PostgreSQL configuration")
		}
		store, err := pg.Open(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL storage: %w", err)
		}
		return store, nil

	case storage.SQLite:
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("missing SQLite configuration")
		}
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, *cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite storage: %w", err)
		}
		return store, nil

	case storage.InMem:
		return in_mem.NewStore(), nil

	default:
		return nil, fmt.Errorf(string(storage.ErrUnsupportedStorer), cfg.Type)
	}
}
