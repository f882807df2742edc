package pg

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
)

var articleColumns = []string{
	"id", "title", "content", "url", "image_url", "source", "author",
	"categories", "published_at", "created_at", "updated_at",
}

// Categories are unioned keeping first-seen order.
const upsertArticleSQL = `
INSERT INTO articles (id, title, content, url, image_url, source, author, categories, published_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (url) DO UPDATE SET
    title        = COALESCE(NULLIF(EXCLUDED.title, ''), articles.title),
    content      = COALESCE(NULLIF(EXCLUDED.content, ''), articles.content),
    image_url    = COALESCE(NULLIF(EXCLUDED.image_url, ''), articles.image_url),
    source       = COALESCE(NULLIF(EXCLUDED.source, ''), articles.source),
    author       = COALESCE(NULLIF(EXCLUDED.author, ''), articles.author),
    categories   = ARRAY(
        SELECT c FROM unnest(articles.categories || EXCLUDED.categories) WITH ORDINALITY AS t(c, n)
        GROUP BY c ORDER BY min(n)
    ),
    published_at = COALESCE(EXCLUDED.published_at, articles.published_at),
    updated_at   = GREATEST(EXCLUDED.updated_at, articles.updated_at)
RETURNING id, title, content, url, image_url, source, author, categories, published_at, created_at, updated_at, (xmax = 0)`

func (s *Store) Upsert(ctx context.Context, article domain.Article) (*domain.Article, bool, error) {
	if err := article.Validate(); err != nil {
		return nil, false, err
	}
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}

	var (
		a       domain.Article
		created bool
	)
	err := s.db.QueryRow(ctx, upsertArticleSQL,
		article.ID,
		article.Title,
		article.Content,
		article.URL,
		article.ImageURL,
		article.Source,
		article.Author,
		domain.NormalizeCategories(article.Categories),
		article.PublishedAt,
		s.now(),
	).Scan(&a.ID, &a.Title, &a.Content, &a.URL, &a.ImageURL, &a.Source, &a.Author,
		&a.Categories, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert article: %w", err)
	}
	if a.Categories == nil {
		a.Categories = []string{}
	}

	return &a, created, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	query, args, err := s.sb.Select(articleColumns...).From("articles").Where(sq.Expr("id = ?", id)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanArticle)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("article", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	return &a, nil
}

func (s *Store) List(ctx context.Context, filter storage.ArticleFilter, page pagination.OffsetRequest, sort storage.Sort) ([]domain.Article, int64, error) {
	_ = page.Validate()
	where := articleWhere(filter.Normalize())

	countSQL, countArgs, err := s.sb.Select("COUNT(*)").From("articles").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := s.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	query, args, err := s.sb.Select(articleColumns...).
		From("articles").
		Where(where).
		OrderBy(sort.OrderBy()...).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanArticle)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan articles: %w", err)
	}
	if items == nil {
		items = []domain.Article{}
	}

	return items, total, nil
}

func articleWhere(f storage.ArticleFilter) sq.And {
	where := sq.And{}
	if len(f.Categories) > 0 {
		where = append(where, sq.Expr("categories && ?", f.Categories))
	}
	if f.Search != "" {
		pattern := storage.LikePattern(f.Search)
		where = append(where, sq.Or{sq.ILike{"title": pattern}, sq.ILike{"content": pattern}})
	}
	if f.Source != "" {
		where = append(where, sq.Expr("lower(source) = lower(?)", f.Source))
	}
	return where
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (s *Store) ListSources(ctx context.Context) ([]domain.Facet, error) {
	return s.facets(ctx, s.sb.Select("source", "COUNT(*) AS n").From("articles").GroupBy("source"))
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Facet, error) {
	return s.facets(ctx, s.sb.Select("c", "COUNT(*) AS n").From("articles, unnest(categories) AS c").GroupBy("c"))
}

func (s *Store) facets(ctx context.Context, b sq.SelectBuilder) ([]domain.Facet, error) {
	query, args, err := b.OrderBy("n DESC", "1 ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build facet query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facets: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Facet, error) {
		var f domain.Facet
		err := row.Scan(&f.Value, &f.Count)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan facets: %w", err)
	}
	if out == nil {
		out = []domain.Facet{}
	}
	return out, nil
}

func scanArticle(row pgx.CollectableRow) (domain.Article, error) {
	var a domain.Article
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.URL, &a.ImageURL, &a.Source, &a.Author,
		&a.Categories, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if a.Categories == nil {
		a.Categories = []string{}
	}
	return a, err
}
