// newsctl is the operator CLI: schema migrations, one-off ingestion, CSV imports
// and rebuilding the search index.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/news-feed/pkg/config/env"
	"github.com/spf13/cobra"
)

var flagEnvFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "newsctl",
		Short:         "Operate the news feed backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			paths := []string{"cmd/newsctl/.env"}
			if flagEnvFile != "" {
				paths = []string{flagEnvFile}
			}
			if err := env.LoadDotEnv(os.Getenv("ENV"), paths...); err != nil {
				slog.Info("Skipping .env environment variables...", "error", err)
			}
			slog.SetLogLoggerLevel(env.LogLevel("LOG_LEVEL", slog.LevelInfo))
		},
	}
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "path to a .env file")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reindexCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
