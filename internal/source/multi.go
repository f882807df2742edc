package source

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
)

// Multi fans a query out to several sources in order and concatenates the results.
// A query with Source set only reaches that source.
type Multi struct {
	sources []Source
	logger  *slog.Logger
}

func NewMulti(logger *slog.Logger, sources ...Source) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{sources: sources, logger: logger}
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.sources))
	for _, s := range m.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

// Fetch stops at the first rate-limit or configuration error so the caller can
// abort the cycle. Other failures are tolerated while at least one source answers.
func (m *Multi) Fetch(ctx context.Context, q Query) ([]RawArticle, error) {
	var (
		out      []RawArticle
		firstErr error
		answered int
	)
	for _, s := range m.sources {
		if q.Source != "" && q.Source != s.Name() {
			continue
		}
		items, err := s.Fetch(ctx, q)
		if err != nil {
			var perr *ProviderError
			if errors.As(err, &perr) && perr.IsRateLimited() {
				return nil, err
			}
			var cerr *apperr.ConfigError
			if errors.As(err, &cerr) {
				return nil, err
			}
			m.logger.Warn("source fetch failed", "source", s.Name(), "query", q.String(), "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		answered++
		for _, it := range items {
			if it.Provider == "" {
				it.Provider = s.Name()
			}
			out = append(out, it)
		}
	}

	if answered == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
