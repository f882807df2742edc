package pg

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/internal/storage/storetest"
	pkgtesting "github.com/DjordjeVuckovic/news-feed/pkg/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var (
	testCtx       = context.Background()
	containerOnce sync.Once
	testContainer *pkgtesting.PGContainer
	containerErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if testContainer != nil {
		_ = testcontainers.TerminateContainer(testContainer.Container)
	}
	os.Exit(code)
}

// newTestStore shares one container across the package and truncates between tests.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	containerOnce.Do(func() {
		testContainer, containerErr = pkgtesting.NewPGContainer(testCtx, pkgtesting.PGConfig{
			Database: "news_test_db",
			Username: "test",
			Password: "test",
		})
	})
	require.NoError(t, containerErr)

	s, err := Open(testCtx, PoolConfig{ConnStr: testContainer.ConnString, MaxConns: 4})
	require.NoError(t, err)
	require.NoError(t, s.truncate(testCtx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t)
	})
}

func TestUpsert_CreatedFlagFromXmax(t *testing.T) {
	s := newTestStore(t)

	a := domain.Article{Title: "t", URL: "https://pg.example.com/1", Source: "s", Categories: []string{"b", "a"}}
	_, created, err := s.Upsert(testCtx, a)
	require.NoError(t, err)
	assert.True(t, created)

	a.Categories = []string{"c", "a"}
	merged, created, err := s.Upsert(testCtx, a)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []string{"b", "a", "c"}, merged.Categories)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)

	assert.NoError(t, s.pool.Migrate())
	assert.NoError(t, s.Ping(testCtx))
}
