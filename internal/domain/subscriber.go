package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/google/uuid"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FrequencyDaily, nil
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	default:
		return "", apperr.NewValidation("frequency must be one of daily, weekly, monthly")
	}
}

type Subscriber struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Topics              []string  `json:"topics"`
	Frequency           Frequency `json:"frequency"`
	ReceiveBreakingNews bool      `json:"receiveBreakingNews"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// NormalizeEmail validates an address and returns its canonical lowercase form.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.NewValidation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.NewValidation("email is invalid")
	}
	return email, nil
}

func (s *Subscriber) HasTopic(topic string) bool {
	topic = strings.ToLower(strings.TrimSpace(topic))
	for _, t := range s.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

type SubscriberFilter struct {
	Frequency    Frequency
	Topic        string
	BreakingNews bool
}

// Matches reports whether an active subscriber passes the filter.
func (f SubscriberFilter) Matches(s *Subscriber) bool {
	if !s.IsActive {
		return false
	}
	if f.Frequency != "" && s.Frequency != f.Frequency {
		return false
	}
	if f.Topic != "" && !s.HasTopic(f.Topic) {
		return false
	}
	if f.BreakingNews && !s.ReceiveBreakingNews {
		return false
	}
	return true
}
