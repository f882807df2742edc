package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

// The row is only created when the article exists; no row back means not found.
const trackSQL = `
INSERT INTO article_stats (article_id, views, shares, bookmarks, updated_at)
SELECT id, $2::bigint, $3::bigint, GREATEST($4::bigint, 0), $5 FROM articles WHERE id = $1
ON CONFLICT (article_id) DO UPDATE SET
    views      = article_stats.views + EXCLUDED.views,
    shares     = article_stats.shares + EXCLUDED.shares,
    bookmarks  = GREATEST(article_stats.bookmarks + $4::bigint, 0),
    updated_at = EXCLUDED.updated_at
RETURNING article_id, views, shares, bookmarks, updated_at`

func deltas(ev domain.StatsEvent) (views, shares, bookmarks int64, err error) {
	switch ev {
	case domain.StatsView:
		return 1, 0, 0, nil
	case domain.StatsShare:
		return 0, 1, 0, nil
	case domain.StatsBookmark:
		return 0, 0, 1, nil
	case domain.StatsUnbookmark:
		return 0, 0, -1, nil
	default:
		return 0, 0, 0, apperr.NewValidation(fmt.Sprintf("unknown stats event %q", ev))
	}
}

func (s *Store) Track(ctx context.Context, articleID uuid.UUID, ev domain.StatsEvent) (*domain.ArticleStats, error) {
	dv, ds, db, err := deltas(ev)
	if err != nil {
		return nil, err
	}

	var st domain.ArticleStats
	err = s.db.QueryRow(ctx, trackSQL, articleID, dv, ds, db, s.now()).
		Scan(&st.ArticleID, &st.Views, &st.Shares, &st.Bookmarks, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("article", articleID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to track %s: %w", ev, err)
	}
	return &st, nil
}

func (s *Store) Stats(ctx context.Context, articleID uuid.UUID) (*domain.ArticleStats, error) {
	var (
		st        = domain.ArticleStats{ArticleID: articleID}
		updatedAt *time.Time
	)
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(st.views, 0), COALESCE(st.shares, 0), COALESCE(st.bookmarks, 0), st.updated_at
		FROM articles a LEFT JOIN article_stats st ON st.article_id = a.id
		WHERE a.id = $1`, articleID,
	).Scan(&st.Views, &st.Shares, &st.Bookmarks, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("article", articleID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	if updatedAt != nil {
		st.UpdatedAt = *updatedAt
	}
	return &st, nil
}

func (s *Store) Top(ctx context.Context, limit int) ([]domain.ArticleWithStats, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := s.sb.Select(
		"a.id", "a.title", "a.content", "a.url", "a.image_url", "a.source", "a.author",
		"a.categories", "a.published_at", "a.created_at", "a.updated_at",
		"st.views", "st.shares", "st.bookmarks", "st.updated_at",
	).
		From("article_stats st").
		Join("articles a ON a.id = st.article_id").
		Where("st.views > 0").
		OrderBy("st.views DESC", "a.created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build top query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ArticleWithStats, error) {
		var item domain.ArticleWithStats
		a := &item.Article
		err := row.Scan(&a.ID, &a.Title, &a.Content, &a.URL, &a.ImageURL, &a.Source, &a.Author,
			&a.Categories, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
			&item.Stats.Views, &item.Stats.Shares, &item.Stats.Bookmarks, &item.Stats.UpdatedAt)
		item.Stats.ArticleID = a.ID
		if a.Categories == nil {
			a.Categories = []string{}
		}
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan top: %w", err)
	}
	if out == nil {
		out = []domain.ArticleWithStats{}
	}
	return out, nil
}
