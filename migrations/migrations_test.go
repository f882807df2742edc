package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpDown_SQLite(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Up(db, SQLite))
	v, err := Version(db, SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = db.Exec(`INSERT INTO articles (id, title, url, source, created_at, updated_at) VALUES ('1', 't', 'https://x', 's', 'now', 'now')`)
	require.NoError(t, err)

	// second run is a no-op
	require.NoError(t, Up(db, SQLite))

	require.NoError(t, Down(db, SQLite))
	v, err = Version(db, SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	_, err = db.Exec(`SELECT 1 FROM articles`)
	assert.Error(t, err)
}

func TestUnsupportedDialect(t *testing.T) {
	db := openSQLite(t)

	err := Up(db, Dialect("mysql"))

	assert.ErrorContains(t, err, "unsupported migration dialect")
}
