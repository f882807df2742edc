package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategories(t *testing.T) {
	got := NormalizeCategories([]string{" Technology", "business", "TECHNOLOGY", "", "science", "Business "})

	assert.Equal(t, []string{"technology", "business", "science"}, got)
}

func TestNormalizeCategories_NilInput(t *testing.T) {
	got := NormalizeCategories(nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestArticle_Validate(t *testing.T) {
	valid := Article{Title: "Title", URL: "https://example.com/a", Source: "Example"}

	tests := []struct {
		name    string
		mutate  func(a *Article)
		wantErr bool
	}{
		{name: "valid", mutate: func(a *Article) {}},
		{name: "missing title", mutate: func(a *Article) { a.Title = "  " }, wantErr: true},
		{name: "missing url", mutate: func(a *Article) { a.URL = "" }, wantErr: true},
		{name: "relative url", mutate: func(a *Article) { a.URL = "/news/1" }, wantErr: true},
		{name: "unsupported scheme", mutate: func(a *Article) { a.URL = "ftp://example.com/a" }, wantErr: true},
		{name: "missing source", mutate: func(a *Article) { a.Source = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)

			err := a.Validate()

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *apperr.ValidationError
			require.Error(t, err)
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestArticle_MergeFrom(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := Article{
		Title:      "Old title",
		Content:    "Old content",
		URL:        "https://example.com/a",
		Source:     "Example",
		Author:     "Jane",
		Categories: []string{"business"},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	later := created.Add(time.Hour)

	existing.MergeFrom(Article{
		Title:      "New title",
		Content:    "",
		ImageURL:   "https://example.com/a.png",
		Categories: []string{"Technology", "business"},
		UpdatedAt:  later,
	})

	assert.Equal(t, "New title", existing.Title)
	assert.Equal(t, "Old content", existing.Content)
	assert.Equal(t, "https://example.com/a.png", existing.ImageURL)
	assert.Equal(t, "Jane", existing.Author)
	assert.Equal(t, []string{"business", "technology"}, existing.Categories)
	assert.Equal(t, created, existing.CreatedAt)
	assert.Equal(t, later, existing.UpdatedAt)
}

func TestArticle_HasCategory(t *testing.T) {
	a := Article{Categories: []string{"technology"}}

	assert.True(t, a.HasCategory("Technology"))
	assert.False(t, a.HasCategory("sports"))
}

func TestArticleStats_Apply(t *testing.T) {
	var s ArticleStats

	s.Apply(StatsView)
	s.Apply(StatsView)
	s.Apply(StatsShare)
	s.Apply(StatsUnbookmark)
	s.Apply(StatsBookmark)

	assert.Equal(t, int64(2), s.Views)
	assert.Equal(t, int64(1), s.Shares)
	assert.Equal(t, int64(1), s.Bookmarks)
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Reader@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", got)

	_, err = NormalizeEmail("not-an-email")
	assert.Error(t, err)

	_, err = NormalizeEmail("")
	assert.Error(t, err)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("")
	require.NoError(t, err)
	assert.Equal(t, FrequencyDaily, f)

	f, err = ParseFrequency("Weekly")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)

	_, err = ParseFrequency("hourly")
	assert.Error(t, err)
}
