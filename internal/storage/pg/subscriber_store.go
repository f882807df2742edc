package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

const subscriberReturning = `id, email, topics, frequency, receive_breaking_news, is_active, created_at, updated_at`

const upsertSubscriberSQL = `
INSERT INTO newsletter_subscribers (id, email, topics, frequency, receive_breaking_news, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
ON CONFLICT (email) DO UPDATE SET
    topics                = EXCLUDED.topics,
    frequency             = EXCLUDED.frequency,
    receive_breaking_news = EXCLUDED.receive_breaking_news,
    is_active             = TRUE,
    updated_at            = EXCLUDED.updated_at
RETURNING ` + subscriberReturning + `, (xmax = 0)`

func (s *Store) Subscribe(ctx context.Context, sub domain.Subscriber) (*domain.Subscriber, bool, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	var (
		out       domain.Subscriber
		frequency string
		created   bool
	)
	err := s.db.QueryRow(ctx, upsertSubscriberSQL,
		sub.ID, sub.Email, domain.NormalizeCategories(sub.Topics), string(sub.Frequency), sub.ReceiveBreakingNews, s.now(),
	).Scan(&out.ID, &out.Email, &out.Topics, &frequency, &out.ReceiveBreakingNews, &out.IsActive,
		&out.CreatedAt, &out.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	out.Frequency = domain.Frequency(frequency)
	if out.Topics == nil {
		out.Topics = []string{}
	}
	return &out, created, nil
}

func (s *Store) Unsubscribe(ctx context.Context, email string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE newsletter_subscribers SET is_active = FALSE, updated_at = $1 WHERE email = $2`,
		s.now(), email,
	)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("subscriber", email)
	}
	return nil
}

func (s *Store) UpdateTopics(ctx context.Context, email string, topics []string) (*domain.Subscriber, error) {
	rows, err := s.db.Query(ctx,
		`UPDATE newsletter_subscribers SET topics = $1, updated_at = $2 WHERE email = $3 RETURNING `+subscriberReturning,
		domain.NormalizeCategories(topics), s.now(), email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update topics: %w", err)
	}
	sub, err := pgx.CollectExactlyOneRow(rows, scanSubscriber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("subscriber", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscriber: %w", err)
	}
	return &sub, nil
}

func (s *Store) GetSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+subscriberReturning+` FROM newsletter_subscribers WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	sub, err := pgx.CollectExactlyOneRow(rows, scanSubscriber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("subscriber", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscriber: %w", err)
	}
	return &sub, nil
}

func (s *Store) ListSubscribers(ctx context.Context, filter domain.SubscriberFilter) ([]domain.Subscriber, error) {
	where := sq.And{sq.Eq{"is_active": true}}
	if filter.Frequency != "" {
		where = append(where, sq.Eq{"frequency": string(filter.Frequency)})
	}
	if filter.Topic != "" {
		where = append(where, sq.Expr("? = ANY(topics)", strings.ToLower(strings.TrimSpace(filter.Topic))))
	}
	if filter.BreakingNews {
		where = append(where, sq.Eq{"receive_breaking_news": true})
	}

	query, args, err := s.sb.Select(subscriberReturning).
		From("newsletter_subscribers").
		Where(where).
		OrderBy("created_at", "email").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscriber query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanSubscriber)
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscribers: %w", err)
	}
	if out == nil {
		out = []domain.Subscriber{}
	}
	return out, nil
}

func scanSubscriber(row pgx.CollectableRow) (domain.Subscriber, error) {
	var (
		sub       domain.Subscriber
		frequency string
	)
	err := row.Scan(&sub.ID, &sub.Email, &sub.Topics, &frequency, &sub.ReceiveBreakingNews, &sub.IsActive,
		&sub.CreatedAt, &sub.UpdatedAt)
	sub.Frequency = domain.Frequency(frequency)
	if sub.Topics == nil {
		sub.Topics = []string{}
	}
	return sub, err
}
