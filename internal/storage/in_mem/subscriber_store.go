package in_mem

import (
	"context"
	"slices"
	"strings"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) Subscribe(_ context.Context, sub domain.Subscriber) (*domain.Subscriber, bool, error) {
	sub.Topics = domain.NormalizeCategories(sub.Topics)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.subscribers[sub.Email]; ok {
		existing.Topics = sub.Topics
		existing.Frequency = sub.Frequency
		existing.ReceiveBreakingNews = sub.ReceiveBreakingNews
		existing.IsActive = true
		existing.UpdatedAt = now
		return cloneSubscriber(existing), false, nil
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.IsActive = true
	sub.CreatedAt = now
	sub.UpdatedAt = now
	s.subscribers[sub.Email] = cloneSubscriber(&sub)

	return cloneSubscriber(&sub), true, nil
}

func (s *Store) Unsubscribe(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subscribers[email]
	if !ok {
		return apperr.NewNotFound("subscriber", email)
	}
	existing.IsActive = false
	existing.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateTopics(_ context.Context, email string, topics []string) (*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subscribers[email]
	if !ok {
		return nil, apperr.NewNotFound("subscriber", email)
	}
	existing.Topics = domain.NormalizeCategories(topics)
	existing.UpdatedAt = s.now()
	return cloneSubscriber(existing), nil
}

func (s *Store) GetSubscriber(_ context.Context, email string) (*domain.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.subscribers[email]
	if !ok {
		return nil, apperr.NewNotFound("subscriber", email)
	}
	return cloneSubscriber(existing), nil
}

func (s *Store) ListSubscribers(_ context.Context, filter domain.SubscriberFilter) ([]domain.Subscriber, error) {
	s.mu.RLock()
	out := make([]domain.Subscriber, 0)
	for _, sub := range s.subscribers {
		if filter.Matches(sub) {
			out = append(out, *cloneSubscriber(sub))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Subscriber) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return out, nil
}

func cloneSubscriber(sub *domain.Subscriber) *domain.Subscriber {
	c := *sub
	c.Topics = slices.Clone(sub.Topics)
	if c.Topics == nil {
		c.Topics = []string{}
	}
	return &c
}
