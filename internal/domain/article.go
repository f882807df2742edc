package domain

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/google/uuid"
)

type Article struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Source      string     `json:"source"`
	Author      string     `json:"author,omitempty"`
	Categories  []string   `json:"categories"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Validate checks the fields an article must carry before it can be stored.
func (a *Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return apperr.NewValidation("article title is required")
	}
	if strings.TrimSpace(a.URL) == "" {
		return apperr.NewValidation("article url is required")
	}
	u, err := url.Parse(a.URL)
	if err != nil {
		return apperr.NewValidationWrap("article url is invalid", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return apperr.NewValidation("article url must be an absolute http(s) url")
	}
	if strings.TrimSpace(a.Source) == "" {
		return apperr.NewValidation("article source is required")
	}
	return nil
}

// MergeFrom copies the non-empty fields of incoming into a and unions the categories.
// Identity and CreatedAt are never touched.
func (a *Article) MergeFrom(incoming Article) {
	if incoming.Title != "" {
		a.Title = incoming.Title
	}
	if incoming.Content != "" {
		a.Content = incoming.Content
	}
	if incoming.ImageURL != "" {
		a.ImageURL = incoming.ImageURL
	}
	if incoming.Source != "" {
		a.Source = incoming.Source
	}
	if incoming.Author != "" {
		a.Author = incoming.Author
	}
	if incoming.PublishedAt != nil {
		a.PublishedAt = incoming.PublishedAt
	}
	a.Categories = NormalizeCategories(append(slices.Clone(a.Categories), incoming.Categories...))
	if incoming.UpdatedAt.After(a.UpdatedAt) {
		a.UpdatedAt = incoming.UpdatedAt
	}
}

// HasCategory reports whether the article is tagged with tag, ignoring case.
func (a *Article) HasCategory(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return slices.Contains(a.Categories, tag)
}

// NormalizeCategories lowercases, trims and de-duplicates tags, keeping first-seen order.
// The result is never nil.
func NormalizeCategories(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Facet is a distinct value with the number of articles carrying it.
type Facet struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type ScoredArticle struct {
	Article
	Score float64 `json:"score"`
}
