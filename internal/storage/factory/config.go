package factory

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/pg"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/sqlite"
	"github.com/DjordjeVuckovic/news-feed/pkg/config/env"
)

const defaultSQLitePath = "./data/news.db"

type StorageConfig struct {
	storage.Type
	Pg     *pg.PoolConfig
	SQLite *sqlite.Config
}

func LoadEnv() (*StorageConfig, error) {
	storageType := (storage.Type)(os.Getenv("STORAGE_TYPE"))
	if storageType == "" {
		slog.Error("STORAGE_TYPE environment variable is not set")
		return nil, fmt.Errorf("STORAGE_TYPE environment variable is not set")
	}
	if storageType != storage.PG && storageType != storage.SQLite && storageType != storage.InMem {
		slog.Error("Invalid STORAGE_TYPE environment variable value", "value", storageType)
		return nil, fmt.Errorf(
			"invalid STORAGE_TYPE environment variable value: %s, expected one of %v",
			storageType,
			[]storage.Type{storage.PG, storage.SQLite, storage.InMem})
	}

	cfg := &StorageConfig{Type: storageType}

	switch storageType {
	case storage.PG:
		maxConns, err := env.Int("PG_MAX_CONNS", 0)
		if err != nil {
			return nil, err
		}
		cfg.Pg = &pg.PoolConfig{
			ConnStr:  os.Getenv("PG_CONNECTION_STRING"),
			MaxConns: int32(maxConns),
		}
		if cfg.Pg.ConnStr == "" {
			slog.Error("PostgreSQL connection string is not set")
			return nil, fmt.Errorf("PostgreSQL connection string is not set")
		}
	case storage.SQLite:
		cfg.SQLite = &sqlite.Config{Path: env.String("SQLITE_PATH", defaultSQLitePath)}
	}

	return cfg, nil
}
