// Package migrations embeds SQL migration files for every supported database
// and applies them with goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// FS contains the embedded SQL migration files, one directory per dialect.
//
//go:embed pg/*.sql sqlite/*.sql
var FS embed.FS

// goose keeps the base FS and dialect in package globals.
var mu sync.Mutex

func dir(d Dialect) (string, error) {
	switch d {
	case Postgres:
		return "pg", nil
	case SQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", d)
	}
}

func with(db *sql.DB, d Dialect, fn func(db *sql.DB, dir string) error) error {
	path, err := dir(d)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	sub, err := fs.Sub(FS, path)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", path, err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(d)); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	return fn(db, ".")
}

// Up applies all pending migrations.
func Up(db *sql.DB, d Dialect) error {
	return with(db, d, func(db *sql.DB, dir string) error {
		if err := goose.Up(db, dir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

// Down rolls back the latest migration.
func Down(db *sql.DB, d Dialect) error {
	return with(db, d, func(db *sql.DB, dir string) error {
		if err := goose.Down(db, dir); err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		return nil
	})
}

// Status logs the applied state of every migration.
func Status(db *sql.DB, d Dialect) error {
	return with(db, d, func(db *sql.DB, dir string) error {
		return goose.Status(db, dir)
	})
}

// Version returns the current schema version.
func Version(db *sql.DB, d Dialect) (int64, error) {
	var v int64
	err := with(db, d, func(db *sql.DB, _ string) error {
		var err error
		v, err = goose.GetDBVersion(db)
		return err
	})
	return v, err
}
