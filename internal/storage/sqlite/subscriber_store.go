package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

var subscriberColumns = []string{
	"id", "email", "frequency", "receive_breaking_news", "is_active", "created_at", "updated_at",
}

const upsertSubscriberSQL = `
INSERT INTO newsletter_subscribers (id, email, frequency, receive_breaking_news, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, 1, ?, ?)
ON CONFLICT(email) DO UPDATE SET
    frequency             = excluded.frequency,
    receive_breaking_news = excluded.receive_breaking_news,
    is_active             = 1,
    updated_at            = excluded.updated_at
RETURNING id`

func (s *Store) Subscribe(ctx context.Context, sub domain.Subscriber) (*domain.Subscriber, bool, error) {
	newID := sub.ID
	if newID == uuid.Nil {
		newID = uuid.New()
	}
	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin subscribe: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, upsertSubscriberSQL,
		newID.String(), sub.Email, string(sub.Frequency), boolToInt(sub.ReceiveBreakingNews), now, now,
	).Scan(&id)
	if err != nil {
		return nil, false, fmt.Errorf("upsert subscriber: %w", err)
	}

	if err := replaceTopics(ctx, tx, id, sub.Topics); err != nil {
		return nil, false, err
	}

	stored, err := s.getSubscriber(ctx, tx, sq.Eq{"id": id}, id)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit subscribe: %w", err)
	}
	return stored, id == newID.String(), nil
}

func (s *Store) Unsubscribe(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE newsletter_subscribers SET is_active = 0, updated_at = ? WHERE email = ?`,
		formatTime(s.now()), email,
	)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NewNotFound("subscriber", email)
	}
	return nil
}

func (s *Store) UpdateTopics(ctx context.Context, email string, topics []string) (*domain.Subscriber, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update topics: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx,
		`UPDATE newsletter_subscribers SET updated_at = ? WHERE email = ? RETURNING id`,
		formatTime(s.now()), email,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("subscriber", email)
	}
	if err != nil {
		return nil, fmt.Errorf("update subscriber: %w", err)
	}

	if err := replaceTopics(ctx, tx, id, topics); err != nil {
		return nil, err
	}

	stored, err := s.getSubscriber(ctx, tx, sq.Eq{"id": id}, email)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update topics: %w", err)
	}
	return stored, nil
}

func (s *Store) GetSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	return s.getSubscriber(ctx, s.db, sq.Eq{"email": email}, email)
}

func (s *Store) getSubscriber(ctx context.Context, q queryer, where sq.Sqlizer, key string) (*domain.Subscriber, error) {
	query, args, err := s.sb.Select(subscriberColumns...).From("newsletter_subscribers").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get subscriber: %w", err)
	}
	sub, err := scanSubscriber(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("subscriber", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	if err := s.loadTopics(ctx, q, []*domain.Subscriber{sub}); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) ListSubscribers(ctx context.Context, filter domain.SubscriberFilter) ([]domain.Subscriber, error) {
	where := sq.And{sq.Eq{"is_active": 1}}
	if filter.Frequency != "" {
		where = append(where, sq.Eq{"frequency": string(filter.Frequency)})
	}
	if filter.Topic != "" {
		where = append(where, sq.Expr(
			"id IN (SELECT subscriber_id FROM subscriber_topics WHERE topic = ?)",
			strings.ToLower(strings.TrimSpace(filter.Topic)),
		))
	}
	if filter.BreakingNews {
		where = append(where, sq.Eq{"receive_breaking_news": 1})
	}

	query, args, err := s.sb.Select(subscriberColumns...).
		From("newsletter_subscribers").
		Where(where).
		OrderBy("created_at", "email").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list subscribers: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.Subscriber, 0)
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	_ = rows.Close()

	ptrs := make([]*domain.Subscriber, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := s.loadTopics(ctx, s.db, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func replaceTopics(ctx context.Context, tx *sql.Tx, subscriberID string, topics []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriber_topics WHERE subscriber_id = ?`, subscriberID); err != nil {
		return fmt.Errorf("clear topics: %w", err)
	}
	for i, t := range domain.NormalizeCategories(topics) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriber_topics (subscriber_id, topic, position) VALUES (?, ?, ?)`,
			subscriberID, t, i,
		); err != nil {
			return fmt.Errorf("insert topic %q: %w", t, err)
		}
	}
	return nil
}

func (s *Store) loadTopics(ctx context.Context, q queryer, subs []*domain.Subscriber) error {
	if len(subs) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Subscriber, len(subs))
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		sub.Topics = []string{}
		byID[sub.ID.String()] = sub
		ids = append(ids, sub.ID.String())
	}

	query, args, err := s.sb.Select("subscriber_id", "topic").
		From("subscriber_topics").
		Where(sq.Eq{"subscriber_id": ids}).
		OrderBy("subscriber_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("build topics: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query topics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, topic string
		if err := rows.Scan(&id, &topic); err != nil {
			return fmt.Errorf("scan topic: %w", err)
		}
		if sub, ok := byID[id]; ok {
			sub.Topics = append(sub.Topics, topic)
		}
	}
	return rows.Err()
}

func scanSubscriber(row scanner) (*domain.Subscriber, error) {
	var (
		sub                  domain.Subscriber
		id, frequency        string
		breaking, active     int
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &sub.Email, &frequency, &breaking, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if sub.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	sub.Frequency = domain.Frequency(frequency)
	sub.ReceiveBreakingNews = breaking == 1
	sub.IsActive = active == 1
	sub.Topics = []string{}
	return &sub, nil
}
