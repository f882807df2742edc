package ingest

import (
	"strings"

	"github.com/DjordjeVuckovic/news-feed/internal/classify"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/source"
	"github.com/DjordjeVuckovic/news-feed/pkg/utils"
)

// Normalize maps a provider record onto an article. Content falls back to the
// description and then the title. The source falls back to the producing
// provider and then to sourceName. Categories are the provider category merged
// with the classifier tags.
func Normalize(raw source.RawArticle, sourceName string) domain.Article {
	title := strings.TrimSpace(raw.Title)
	categories := make([]string, 0, 4)
	if raw.Category != "" {
		categories = append(categories, raw.Category)
	}
	categories = append(categories, classify.Classify(title, raw.Description)...)

	return domain.Article{
		Title:       title,
		Content:     utils.FirstNonEmpty(raw.Content, raw.Description, title),
		URL:         strings.TrimSpace(raw.URL),
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		Source:      utils.FirstNonEmpty(raw.SourceName, raw.Provider, sourceName),
		Author:      strings.TrimSpace(raw.Author),
		Categories:  domain.NormalizeCategories(categories),
		PublishedAt: raw.PublishedAt,
	}
}
