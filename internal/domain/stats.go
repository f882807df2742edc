package domain

import (
	"time"

	"github.com/google/uuid"
)

type StatsEvent string

const (
	StatsView       StatsEvent = "view"
	StatsShare      StatsEvent = "share"
	StatsBookmark   StatsEvent = "bookmark"
	StatsUnbookmark StatsEvent = "unbookmark"
)

type ArticleStats struct {
	ArticleID uuid.UUID `json:"articleId"`
	Views     int64     `json:"views"`
	Shares    int64     `json:"shares"`
	Bookmarks int64     `json:"bookmarks"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Apply records one event. Bookmarks never go below zero.
func (s *ArticleStats) Apply(ev StatsEvent) {
	switch ev {
	case StatsView:
		s.Views++
	case StatsShare:
		s.Shares++
	case StatsBookmark:
		s.Bookmarks++
	case StatsUnbookmark:
		if s.Bookmarks > 0 {
			s.Bookmarks--
		}
	}
}

type ArticleWithStats struct {
	Article
	Stats ArticleStats `json:"stats"`
}
