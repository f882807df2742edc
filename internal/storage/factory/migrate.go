package factory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/pg"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/sqlite"
	"github.com/DjordjeVuckovic/news-feed/migrations"
)

// OpenMigrationDB returns a database/sql handle and the migration dialect for SQL stores.
func OpenMigrationDB(ctx context.Context, cfg *StorageConfig) (*sql.DB, migrations.Dialect, error) {
	switch cfg.Type {
	case storage.PG:
		if cfg.Pg == nil {
			return nil, "", fmt.Errorf("missing PostgreSQL configuration")
		}
		db, err := pg.OpenDB(ctx, cfg.Pg.ConnStr)
		return db, migrations.Postgres, err
	case storage.SQLite:
		if cfg.SQLite == nil {
			return nil, "", fmt.Errorf("missing SQLite configuration")
		}
		db, err := sqlite.OpenDB(ctx, cfg.SQLite.Path)
		return db, migrations.SQLite, err
	default:
		return nil, "", fmt.Errorf("storage type %s has no schema to migrate", cfg.Type)
	}
}
