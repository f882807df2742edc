package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
	"github.com/google/uuid"
)

type Type string

const (
	PG     Type = "pg"
	SQLite Type = "sqlite"
	InMem  Type = "in_mem"
)

type StorerError string

const (
	ErrUnsupportedStorer StorerError = "unsupported storer type: %s"
)

func (e StorerError) Error() string {
	return string(e)
}

// ArticleStore persists articles keyed by url.
type ArticleStore interface {
	// Upsert inserts the article or merges it into the row with the same url.
	// The returned flag is true when a new row was created.
	Upsert(ctx context.Context, article domain.Article) (*domain.Article, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error)
	List(ctx context.Context, filter ArticleFilter, page pagination.OffsetRequest, sort Sort) ([]domain.Article, int64, error)
	Count(ctx context.Context) (int64, error)
	ListSources(ctx context.Context) ([]domain.Facet, error)
	ListCategories(ctx context.Context) ([]domain.Facet, error)
}

// SubscriberStore keeps newsletter subscriptions. Emails are unique and never deleted.
type SubscriberStore interface {
	// Subscribe creates the subscriber or updates and reactivates the existing one.
	Subscribe(ctx context.Context, sub domain.Subscriber) (*domain.Subscriber, bool, error)
	Unsubscribe(ctx context.Context, email string) error
	UpdateTopics(ctx context.Context, email string, topics []string) (*domain.Subscriber, error)
	GetSubscriber(ctx context.Context, email string) (*domain.Subscriber, error)
	ListSubscribers(ctx context.Context, filter domain.SubscriberFilter) ([]domain.Subscriber, error)
}

type StatsStore interface {
	Track(ctx context.Context, articleID uuid.UUID, ev domain.StatsEvent) (*domain.ArticleStats, error)
	Stats(ctx context.Context, articleID uuid.UUID) (*domain.ArticleStats, error)
	Top(ctx context.Context, limit int) ([]domain.ArticleWithStats, error)
}

type Store interface {
	ArticleStore
	SubscriberStore
	StatsStore
	Ping(ctx context.Context) error
	Close() error
}

// ArticleFilter narrows List. Categories match if any tag matches; the category
// and search conditions must both hold.
type ArticleFilter struct {
	Categories []string
	Search     string
	Source     string
}

func (f ArticleFilter) Normalize() ArticleFilter {
	return ArticleFilter{
		Categories: domain.NormalizeCategories(f.Categories),
		Search:     strings.TrimSpace(f.Search),
		Source:     strings.TrimSpace(f.Source),
	}
}

// Matches evaluates the filter in memory. f must be normalized.
func (f ArticleFilter) Matches(a *domain.Article) bool {
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if a.HasCategory(c) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Source != "" && !strings.EqualFold(a.Source, f.Source) {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(a.Title), term) && !strings.Contains(strings.ToLower(a.Content), term) {
			return false
		}
	}
	return true
}

type SortField string

const (
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortPublishedAt SortField = "publishedAt"
	SortTitle       SortField = "title"
	SortSource      SortField = "source"
)

var sortColumns = map[SortField]string{
	SortCreatedAt:   "created_at",
	SortUpdatedAt:   "updated_at",
	SortPublishedAt: "published_at",
	SortTitle:       "title",
	SortSource:      "source",
}

type Sort struct {
	Field SortField
	Desc  bool
}

var DefaultSort = Sort{Field: SortCreatedAt, Desc: true}

// ParseSort reads the sortBy/sortOrder pair. Empty values fall back to createdAt desc.
func ParseSort(field, order string) (Sort, error) {
	s := DefaultSort
	if field != "" {
		s.Field = SortField(field)
		if _, ok := sortColumns[s.Field]; !ok {
			return Sort{}, apperr.NewValidation(fmt.Sprintf("unsupported sortBy %q", field))
		}
	}
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "", "DESC":
		s.Desc = true
	case "ASC":
		s.Desc = false
	default:
		return Sort{}, apperr.NewValidation(fmt.Sprintf("unsupported sortOrder %q", order))
	}
	return s, nil
}

// Column returns the SQL column for the sort field.
func (s Sort) Column() string {
	if c, ok := sortColumns[s.Field]; ok {
		return c
	}
	return sortColumns[SortCreatedAt]
}

// OrderBy renders ORDER BY terms with id as a stable tiebreaker.
func (s Sort) OrderBy() []string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return []string{
		fmt.Sprintf("%s %s NULLS LAST", s.Column(), dir),
		"id " + dir,
	}
}

// LikePattern escapes LIKE wildcards in term and wraps it for substring matching.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
