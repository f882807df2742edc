package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
)

var articleColumns = []string{
	"id", "title", "content", "url", "image_url", "source", "author",
	"published_at", "created_at", "updated_at",
}

const upsertArticleSQL = `
INSERT INTO articles (id, title, content, url, image_url, source, author, published_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
    title        = COALESCE(NULLIF(excluded.title, ''), articles.title),
    content      = COALESCE(NULLIF(excluded.content, ''), articles.content),
    image_url    = COALESCE(NULLIF(excluded.image_url, ''), articles.image_url),
    source       = COALESCE(NULLIF(excluded.source, ''), articles.source),
    author       = COALESCE(NULLIF(excluded.author, ''), articles.author),
    published_at = COALESCE(excluded.published_at, articles.published_at),
    updated_at   = MAX(excluded.updated_at, articles.updated_at)
RETURNING id`

const appendCategorySQL = `
INSERT INTO article_categories (article_id, category, position)
VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM article_categories WHERE article_id = ?))
ON CONFLICT (article_id, category) DO NOTHING`

func (s *Store) Upsert(ctx context.Context, article domain.Article) (*domain.Article, bool, error) {
	if err := article.Validate(); err != nil {
		return nil, false, err
	}
	categories := domain.NormalizeCategories(article.Categories)

	newID := article.ID
	if newID == uuid.Nil {
		newID = uuid.New()
	}
	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, upsertArticleSQL,
		newID.String(), article.Title, article.Content, article.URL, article.ImageURL,
		article.Source, article.Author, formatNullTime(article.PublishedAt), now, now,
	).Scan(&id)
	if err != nil {
		return nil, false, fmt.Errorf("upsert article: %w", err)
	}

	for _, c := range categories {
		if _, err := tx.ExecContext(ctx, appendCategorySQL, id, c, id); err != nil {
			return nil, false, fmt.Errorf("append category %q: %w", c, err)
		}
	}

	stored, err := getArticle(ctx, tx, s.sb, id)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit upsert: %w", err)
	}

	return stored, id == newID.String(), nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	return getArticle(ctx, s.db, s.sb, id.String())
}

func getArticle(ctx context.Context, q queryer, sb sq.StatementBuilderType, id string) (*domain.Article, error) {
	query, args, err := sb.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get article: %w", err)
	}

	a, err := scanArticle(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("article", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	if err := loadCategories(ctx, q, sb, []*domain.Article{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) List(ctx context.Context, filter storage.ArticleFilter, page pagination.OffsetRequest, sort storage.Sort) ([]domain.Article, int64, error) {
	_ = page.Validate()
	where := s.where(filter.Normalize())

	countSQL, countArgs, err := s.sb.Select("COUNT(*)").From("articles").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query, args, err := s.sb.Select(articleColumns...).
		From("articles").
		Where(where).
		OrderBy(sort.OrderBy()...).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]domain.Article, 0, page.Limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate articles: %w", err)
	}
	_ = rows.Close()

	ptrs := make([]*domain.Article, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	if err := loadCategories(ctx, s.db, s.sb, ptrs); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *Store) where(f storage.ArticleFilter) sq.And {
	where := sq.And{}
	if len(f.Categories) > 0 {
		args := make([]any, len(f.Categories))
		for i, c := range f.Categories {
			args[i] = c
		}
		where = append(where, sq.Expr(
			"id IN (SELECT article_id FROM article_categories WHERE category IN ("+sq.Placeholders(len(args))+"))",
			args...,
		))
	}
	if f.Search != "" {
		pattern := storage.LikePattern(f.Search)
		where = append(where, sq.Expr(`(title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`, pattern, pattern))
	}
	if f.Source != "" {
		where = append(where, sq.Expr("source = ? COLLATE NOCASE", f.Source))
	}
	return where
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (s *Store) ListSources(ctx context.Context) ([]domain.Facet, error) {
	return s.facets(ctx, s.sb.Select("source", "COUNT(*) AS n").From("articles").GroupBy("source"))
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Facet, error) {
	return s.facets(ctx, s.sb.Select("category", "COUNT(*) AS n").From("article_categories").GroupBy("category"))
}

func (s *Store) facets(ctx context.Context, b sq.SelectBuilder) ([]domain.Facet, error) {
	query, args, err := b.OrderBy("n DESC", "1 ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build facets: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query facets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.Facet, 0)
	for rows.Next() {
		var f domain.Facet
		if err := rows.Scan(&f.Value, &f.Count); err != nil {
			return nil, fmt.Errorf("scan facet: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func loadCategories(ctx context.Context, q queryer, sb sq.StatementBuilderType, articles []*domain.Article) error {
	if len(articles) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Article, len(articles))
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		a.Categories = []string{}
		byID[a.ID.String()] = a
		ids = append(ids, a.ID.String())
	}

	query, args, err := sb.Select("article_id", "category").
		From("article_categories").
		Where(sq.Eq{"article_id": ids}).
		OrderBy("article_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("build categories: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, category string
		if err := rows.Scan(&id, &category); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		if a, ok := byID[id]; ok {
			a.Categories = append(a.Categories, category)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*domain.Article, error) {
	var (
		a                    domain.Article
		id                   string
		published            sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &a.Title, &a.Content, &a.URL, &a.ImageURL, &a.Source, &a.Author,
		&published, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if a.PublishedAt, err = parseNullTime(published); err != nil {
		return nil, fmt.Errorf("parse published_at: %w", err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	a.Categories = []string{}
	return &a, nil
}
