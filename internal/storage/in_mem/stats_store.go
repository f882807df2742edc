package in_mem

import (
	"cmp"
	"context"
	"slices"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) Track(_ context.Context, articleID uuid.UUID, ev domain.StatsEvent) (*domain.ArticleStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[articleID]; !ok {
		return nil, apperr.NewNotFound("article", articleID.String())
	}
	st, ok := s.stats[articleID]
	if !ok {
		st = &domain.ArticleStats{ArticleID: articleID}
		s.stats[articleID] = st
	}
	st.Apply(ev)
	st.UpdatedAt = s.now()

	c := *st
	return &c, nil
}

func (s *Store) Stats(_ context.Context, articleID uuid.UUID) (*domain.ArticleStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.articles[articleID]; !ok {
		return nil, apperr.NewNotFound("article", articleID.String())
	}
	if st, ok := s.stats[articleID]; ok {
		c := *st
		return &c, nil
	}
	return &domain.ArticleStats{ArticleID: articleID}, nil
}

func (s *Store) Top(_ context.Context, limit int) ([]domain.ArticleWithStats, error) {
	s.mu.RLock()
	out := make([]domain.ArticleWithStats, 0, len(s.stats))
	for id, st := range s.stats {
		if st.Views == 0 {
			continue
		}
		out = append(out, domain.ArticleWithStats{Article: *cloneArticle(s.articles[id]), Stats: *st})
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.ArticleWithStats) int {
		if c := cmp.Compare(b.Stats.Views, a.Stats.Views); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
