// Package pg implements storage.Store on PostgreSQL through a pgx pool.
package pg

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DjordjeVuckovic/news-feed/internal/storage"
)

type Store struct {
	pool *ConnectionPool
	db   *pgxpool.Pool
	sb   sq.StatementBuilderType
	now  func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open connects, applies pending migrations and returns a ready store.
func Open(ctx context.Context, cfg PoolConfig) (*Store, error) {
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

func NewStore(pool *ConnectionPool) *Store {
	return &Store{
		pool: pool,
		db:   pool.GetConn(),
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) truncate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "TRUNCATE TABLE article_stats, newsletter_subscribers, articles CASCADE"); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}
