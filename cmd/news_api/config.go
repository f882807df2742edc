package main

import (
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/news-feed/internal/ingest"
	"github.com/DjordjeVuckovic/news-feed/internal/server"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/es"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-feed/pkg/config/env"
)

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type AppConfig struct {
	ENV string
}

type ApiConfig struct {
	LogLevel      slog.Level
	Server        *server.Config
	StorageConfig *factory.StorageConfig
	Ingest        *ingest.Config
	// Search is nil when Elasticsearch is not configured.
	Search *es.ClientConfig
}

func (as *AppConfig) Load() (*ApiConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/news_api/.env")
	if err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}

	serverCfg, err := server.LoadConfig()
	if err != nil {
		return nil, err
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage configuration from environment", "error", err)
		return nil, err
	}

	ingestCfg, err := ingest.LoadConfig()
	if err != nil {
		slog.Error("Failed to load ingestion configuration", "error", err)
		return nil, err
	}

	return &ApiConfig{
		LogLevel:      env.LogLevel("LOG_LEVEL", slog.LevelInfo),
		Server:        serverCfg,
		StorageConfig: storageCfg,
		Ingest:        ingestCfg,
		Search:        es.LoadEnv(),
	}, nil
}
