package in_mem

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
	"github.com/google/uuid"
)

// Store keeps everything in process memory. A single RWMutex serializes writes.
type Store struct {
	mu          sync.RWMutex
	articles    map[uuid.UUID]*domain.Article
	byURL       map[string]uuid.UUID
	subscribers map[string]*domain.Subscriber
	stats       map[uuid.UUID]*domain.ArticleStats
	now         func() time.Time
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		articles:    make(map[uuid.UUID]*domain.Article),
		byURL:       make(map[string]uuid.UUID),
		subscribers: make(map[string]*domain.Subscriber),
		stats:       make(map[uuid.UUID]*domain.ArticleStats),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Upsert(_ context.Context, article domain.Article) (*domain.Article, bool, error) {
	if err := article.Validate(); err != nil {
		return nil, false, err
	}
	article.Categories = domain.NormalizeCategories(article.Categories)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id, ok := s.byURL[article.URL]; ok {
		existing := s.articles[id]
		article.UpdatedAt = now
		existing.MergeFrom(article)
		return cloneArticle(existing), false, nil
	}

	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	article.CreatedAt = now
	article.UpdatedAt = now
	stored := cloneArticle(&article)
	s.articles[stored.ID] = stored
	s.byURL[stored.URL] = stored.ID

	return cloneArticle(stored), true, nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[id]
	if !ok {
		return nil, apperr.NewNotFound("article", id.String())
	}
	return cloneArticle(a), nil
}

func (s *Store) List(_ context.Context, filter storage.ArticleFilter, page pagination.OffsetRequest, sort storage.Sort) ([]domain.Article, int64, error) {
	_ = page.Validate()
	filter = filter.Normalize()

	s.mu.RLock()
	matched := make([]domain.Article, 0)
	for _, a := range s.articles {
		if filter.Matches(a) {
			matched = append(matched, *cloneArticle(a))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Article) int {
		// NULLS LAST regardless of direction
		if sort.Field == storage.SortPublishedAt {
			if c := cmp.Compare(nilRank(a.PublishedAt), nilRank(b.PublishedAt)); c != 0 {
				return c
			}
		}
		c := compareBy(sort.Field, &a, &b)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if sort.Desc {
			return -c
		}
		return c
	})

	total := int64(len(matched))
	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))

	return matched[start:end], total, nil
}

func compareBy(field storage.SortField, a, b *domain.Article) int {
	switch field {
	case storage.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case storage.SortPublishedAt:
		if a.PublishedAt == nil || b.PublishedAt == nil {
			return 0
		}
		return a.PublishedAt.Compare(*b.PublishedAt)
	case storage.SortTitle:
		return strings.Compare(a.Title, b.Title)
	case storage.SortSource:
		return strings.Compare(a.Source, b.Source)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func nilRank(t *time.Time) int {
	if t == nil {
		return 1
	}
	return 0
}

func (s *Store) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.articles)), nil
}

func (s *Store) ListSources(context.Context) ([]domain.Facet, error) {
	s.mu.RLock()
	counts := make(map[string]int64)
	for _, a := range s.articles {
		counts[a.Source]++
	}
	s.mu.RUnlock()
	return facets(counts), nil
}

func (s *Store) ListCategories(context.Context) ([]domain.Facet, error) {
	s.mu.RLock()
	counts := make(map[string]int64)
	for _, a := range s.articles {
		for _, c := range a.Categories {
			counts[c]++
		}
	}
	s.mu.RUnlock()
	return facets(counts), nil
}

// facets orders by count desc, then value.
func facets(counts map[string]int64) []domain.Facet {
	out := make([]domain.Facet, 0, len(counts))
	for v, c := range counts {
		out = append(out, domain.Facet{Value: v, Count: c})
	}
	slices.SortFunc(out, func(a, b domain.Facet) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	return out
}

func cloneArticle(a *domain.Article) *domain.Article {
	c := *a
	c.Categories = slices.Clone(a.Categories)
	if c.Categories == nil {
		c.Categories = []string{}
	}
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}
