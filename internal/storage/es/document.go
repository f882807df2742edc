package es

import (
	"time"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

// ArticleDocument is the indexed form of an article. The document id is the article id.
type ArticleDocument struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"image_url,omitempty"`
	Source      string     `json:"source"`
	Author      string     `json:"author,omitempty"`
	Categories  []string   `json:"categories"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	IndexedAt   time.Time  `json:"indexed_at"`
}

type IndexBuilder struct {
	analyzer string
	now      func() time.Time
}

func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{
		analyzer: "news_analyzer",
		now:      time.Now,
	}
}

func (b *IndexBuilder) mapToESDocument(article domain.Article) ArticleDocument {
	return ArticleDocument{
		ID:          article.ID.String(),
		Title:       article.Title,
		Content:     article.Content,
		URL:         article.URL,
		ImageURL:    article.ImageURL,
		Source:      article.Source,
		Author:      article.Author,
		Categories:  domain.NormalizeCategories(article.Categories),
		PublishedAt: article.PublishedAt,
		CreatedAt:   article.CreatedAt,
		UpdatedAt:   article.UpdatedAt,
		IndexedAt:   b.now().UTC(),
	}
}

func mapToArticle(doc ArticleDocument) (domain.Article, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.Article{}, err
	}
	return domain.Article{
		ID:          id,
		Title:       doc.Title,
		Content:     doc.Content,
		URL:         doc.URL,
		ImageURL:    doc.ImageURL,
		Source:      doc.Source,
		Author:      doc.Author,
		Categories:  domain.NormalizeCategories(doc.Categories),
		PublishedAt: doc.PublishedAt,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func (b *IndexBuilder) buildSettings() types.IndexSettings {
	return types.IndexSettings{
		Analysis: &types.IndexSettingsAnalysis{
			Analyzer: map[string]types.Analyzer{
				b.analyzer: types.StandardAnalyzer{
					Stopwords: []string{"_english_"},
				},
			},
		},
	}
}

func (b *IndexBuilder) buildMapping() types.TypeMapping {
	return types.TypeMapping{
		Properties: map[string]types.Property{
			"id":           types.NewKeywordProperty(),
			"title":        b.createTextPropertyWithKeyword(b.analyzer),
			"content":      b.createTextProperty(b.analyzer),
			"url":          types.NewKeywordProperty(),
			"image_url":    types.NewKeywordProperty(),
			"source":       b.createTextPropertyWithKeyword(""),
			"author":       b.createTextPropertyWithKeyword(""),
			"categories":   types.NewKeywordProperty(),
			"published_at": types.NewDateProperty(),
			"created_at":   types.NewDateProperty(),
			"updated_at":   types.NewDateProperty(),
			"indexed_at":   types.NewDateProperty(),
		},
	}
}

func (b *IndexBuilder) createTextProperty(analyzer string) types.Property {
	textProp := types.NewTextProperty()
	if analyzer != "" {
		textProp.Analyzer = &analyzer
	}
	return textProp
}

func (b *IndexBuilder) createTextPropertyWithKeyword(analyzer string) types.Property {
	textProp := types.NewTextProperty()
	if analyzer != "" {
		textProp.Analyzer = &analyzer
	}
	textProp.Fields = map[string]types.Property{
		"keyword": types.NewKeywordProperty(),
	}
	return textProp
}
