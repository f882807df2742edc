package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DjordjeVuckovic/news-feed/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-feed/migrations"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema of the configured SQL store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(db *sql.DB, d migrations.Dialect) error {
				if err := migrations.Up(db, d); err != nil {
					return err
				}
				return printVersion(cmd, db, d)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(db *sql.DB, d migrations.Dialect) error {
				if err := migrations.Down(db, d); err != nil {
					return err
				}
				return printVersion(cmd, db, d)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), migrations.Status)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(db *sql.DB, d migrations.Dialect) error {
				return printVersion(cmd, db, d)
			})
		},
	})

	return cmd
}

func withMigrationDB(ctx context.Context, fn func(db *sql.DB, d migrations.Dialect) error) error {
	cfg, err := factory.LoadEnv()
	if err != nil {
		return err
	}
	db, dialect, err := factory.OpenMigrationDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, dialect)
}

func printVersion(cmd *cobra.Command, db *sql.DB, d migrations.Dialect) error {
	v, err := migrations.Version(db, d)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	cmd.Printf("Schema version: %d\n", v)
	return nil
}
