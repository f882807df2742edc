package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

var statsDelta = map[domain.StatsEvent]string{
	domain.StatsView:       "views = views + 1",
	domain.StatsShare:      "shares = shares + 1",
	domain.StatsBookmark:   "bookmarks = bookmarks + 1",
	domain.StatsUnbookmark: "bookmarks = MAX(bookmarks - 1, 0)",
}

func (s *Store) Track(ctx context.Context, articleID uuid.UUID, ev domain.StatsEvent) (*domain.ArticleStats, error) {
	delta, ok := statsDelta[ev]
	if !ok {
		return nil, apperr.NewValidation(fmt.Sprintf("unknown stats event %q", ev))
	}
	id := articleID.String()
	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin track: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO article_stats (article_id, updated_at)
		 SELECT id, ? FROM articles WHERE id = ?
		 ON CONFLICT (article_id) DO NOTHING`,
		now, id,
	); err != nil {
		return nil, fmt.Errorf("ensure stats row: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE article_stats SET `+delta+`, updated_at = ? WHERE article_id = ?`,
		now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", ev, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NewNotFound("article", id)
	}

	st, err := scanStats(tx.QueryRowContext(ctx, selectStatsSQL, id))
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit track: %w", err)
	}
	return st, nil
}

const selectStatsSQL = `SELECT article_id, views, shares, bookmarks, updated_at FROM article_stats WHERE article_id = ?`

func (s *Store) Stats(ctx context.Context, articleID uuid.UUID) (*domain.ArticleStats, error) {
	id := articleID.String()
	st, err := scanStats(s.db.QueryRowContext(ctx, selectStatsSQL, id))
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("article", id)
	}
	if err != nil {
		return nil, fmt.Errorf("check article: %w", err)
	}
	return &domain.ArticleStats{ArticleID: articleID}, nil
}

func (s *Store) Top(ctx context.Context, limit int) ([]domain.ArticleWithStats, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := s.sb.Select(
		"a.id", "a.title", "a.content", "a.url", "a.image_url", "a.source", "a.author",
		"a.published_at", "a.created_at", "a.updated_at",
		"st.views", "st.shares", "st.bookmarks", "st.updated_at",
	).
		From("article_stats st").
		Join("articles a ON a.id = st.article_id").
		Where("st.views > 0").
		OrderBy("st.views DESC", "a.created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.ArticleWithStats, 0, limit)
	for rows.Next() {
		var (
			item                             domain.ArticleWithStats
			id, createdAt, updatedAt, statAt string
			published                        sql.NullString
		)
		if err := rows.Scan(&id, &item.Title, &item.Content, &item.URL, &item.ImageURL, &item.Source, &item.Author,
			&published, &createdAt, &updatedAt,
			&item.Stats.Views, &item.Stats.Shares, &item.Stats.Bookmarks, &statAt); err != nil {
			return nil, fmt.Errorf("scan top: %w", err)
		}
		if item.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse id: %w", err)
		}
		item.Stats.ArticleID = item.ID
		item.PublishedAt, _ = parseNullTime(published)
		item.CreatedAt, _ = parseTime(createdAt)
		item.UpdatedAt, _ = parseTime(updatedAt)
		item.Stats.UpdatedAt, _ = parseTime(statAt)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top: %w", err)
	}
	_ = rows.Close()

	ptrs := make([]*domain.Article, len(out))
	for i := range out {
		ptrs[i] = &out[i].Article
	}
	if err := loadCategories(ctx, s.db, s.sb, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func scanStats(row scanner) (*domain.ArticleStats, error) {
	var (
		st            domain.ArticleStats
		id, updatedAt string
	)
	if err := row.Scan(&id, &st.Views, &st.Shares, &st.Bookmarks, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if st.ArticleID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse article_id: %w", err)
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &st, nil
}
