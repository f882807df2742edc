// Package storetest holds the behavioural contract every storage.Store must satisfy.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("UpsertCreatesThenMerges", func(t *testing.T) { testUpsertMerge(t, newStore(t)) })
	t.Run("UpsertRejectsInvalid", func(t *testing.T) { testUpsertInvalid(t, newStore(t)) })
	t.Run("GetByID", func(t *testing.T) { testGetByID(t, newStore(t)) })
	t.Run("ListCategoryFilter", func(t *testing.T) { testCategoryFilter(t, newStore(t)) })
	t.Run("ListSearch", func(t *testing.T) { testSearch(t, newStore(t)) })
	t.Run("ListPagination", func(t *testing.T) { testPagination(t, newStore(t)) })
	t.Run("ListSortPublishedAt", func(t *testing.T) { testSortPublishedAt(t, newStore(t)) })
	t.Run("Facets", func(t *testing.T) { testFacets(t, newStore(t)) })
	t.Run("Subscribers", func(t *testing.T) { testSubscribers(t, newStore(t)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore(t)) })
}

func article(title, url, source string, categories ...string) domain.Article {
	return domain.Article{
		Title:      title,
		Content:    title + " content",
		URL:        url,
		Source:     source,
		Categories: categories,
	}
}

func mustUpsert(t *testing.T, s storage.Store, a domain.Article) *domain.Article {
	t.Helper()
	stored, _, err := s.Upsert(context.Background(), a)
	require.NoError(t, err)
	return stored
}

func titles(items []domain.Article) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.Title)
	}
	return out
}

func testUpsertMerge(t *testing.T, s storage.Store) {
	ctx := context.Background()

	first, created, err := s.Upsert(ctx, article("Original", "https://news.example.com/1", "Reuters", "Technology"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, []string{"technology"}, first.Categories)

	time.Sleep(2 * time.Millisecond)

	incoming := article("Updated", "https://news.example.com/1", "Reuters", "science", "technology")
	incoming.Content = ""
	second, created, err := s.Upsert(ctx, incoming)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Updated", second.Title)
	assert.Equal(t, "Original content", second.Content, "empty incoming fields keep stored values")
	assert.Equal(t, []string{"technology", "science"}, second.Categories)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := s.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Categories, got.Categories)
	assert.Equal(t, "Updated", got.Title)
}

func testUpsertInvalid(t *testing.T, s storage.Store) {
	ctx := context.Background()

	cases := []domain.Article{
		article("", "https://news.example.com/a", "Reuters"),
		article("No url", "", "Reuters"),
		article("Relative", "/relative", "Reuters"),
		article("No source", "https://news.example.com/b", ""),
	}
	for _, a := range cases {
		_, _, err := s.Upsert(ctx, a)
		var verr *apperr.ValidationError
		assert.ErrorAs(t, err, &verr)
	}

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testGetByID(t *testing.T, s storage.Store) {
	ctx := context.Background()
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := article("Has image", "https://news.example.com/img", "BBC")
	a.ImageURL = "https://news.example.com/img.png"
	a.Author = "Jane"
	a.PublishedAt = &published
	stored := mustUpsert(t, s, a)

	got, err := s.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.com/img.png", got.ImageURL)
	assert.Equal(t, "Jane", got.Author)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.PublishedAt.Equal(published))
	assert.NotNil(t, got.Categories)

	_, err = s.GetByID(ctx, uuid.New())
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func testCategoryFilter(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustUpsert(t, s, article("A", "https://n.example.com/a", "S1", "technology"))
	mustUpsert(t, s, article("B", "https://n.example.com/b", "S1", "business"))
	mustUpsert(t, s, article("C quantum", "https://n.example.com/c", "S2", "technology", "science"))
	mustUpsert(t, s, article("D", "https://n.example.com/d", "S2"))

	byTitle := storage.Sort{Field: storage.SortTitle}
	page := pagination.OffsetRequest{Page: 1, Limit: 10}

	items, total, err := s.List(ctx, storage.ArticleFilter{Categories: []string{"Technology", "science"}}, page, byTitle)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"A", "C quantum"}, titles(items))

	items, total, err = s.List(ctx, storage.ArticleFilter{Categories: []string{"technology"}, Search: "QUANTUM"}, page, byTitle)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"C quantum"}, titles(items))

	items, total, err = s.List(ctx, storage.ArticleFilter{Source: "S2"}, page, byTitle)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"C quantum", "D"}, titles(items))

	items, total, err = s.List(ctx, storage.ArticleFilter{Categories: []string{"health"}}, page, byTitle)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func testSearch(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := article("Mars rover lands", "https://n.example.com/mars", "NASA")
	b := article("Budget news", "https://n.example.com/budget", "FT")
	b.Content = "The rover program lost funding"
	c := article("100% growth_rate", "https://n.example.com/pct", "FT")
	mustUpsert(t, s, a)
	mustUpsert(t, s, b)
	mustUpsert(t, s, c)

	page := pagination.OffsetRequest{Page: 1, Limit: 10}
	items, total, err := s.List(ctx, storage.ArticleFilter{Search: "Rover"}, page, storage.Sort{Field: storage.SortTitle})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"Budget news", "Mars rover lands"}, titles(items))

	items, _, err = s.List(ctx, storage.ArticleFilter{Search: "0%"}, page, storage.DefaultSort)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% growth_rate"}, titles(items))
}

func testPagination(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for i := range 25 {
		mustUpsert(t, s, article(fmt.Sprintf("Article %02d", i), fmt.Sprintf("https://n.example.com/%d", i), "S"))
	}

	asc := storage.Sort{Field: storage.SortTitle}
	items, total, err := s.List(ctx, storage.ArticleFilter{}, pagination.OffsetRequest{Page: 3, Limit: 10}, asc)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Equal(t, 3, pagination.TotalPages(total, 10))
	assert.Equal(t, []string{"Article 20", "Article 21", "Article 22", "Article 23", "Article 24"}, titles(items))

	items, _, err = s.List(ctx, storage.ArticleFilter{}, pagination.OffsetRequest{Page: 1, Limit: 2}, storage.Sort{Field: storage.SortTitle, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Article 24", "Article 23"}, titles(items))

	items, _, err = s.List(ctx, storage.ArticleFilter{}, pagination.OffsetRequest{Page: 9, Limit: 10}, asc)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testSortPublishedAt(t *testing.T, s storage.Store) {
	ctx := context.Background()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	a := article("Older", "https://n.example.com/older", "S")
	a.PublishedAt = &older
	b := article("Undated", "https://n.example.com/undated", "S")
	c := article("Newer", "https://n.example.com/newer", "S")
	c.PublishedAt = &newer
	mustUpsert(t, s, a)
	mustUpsert(t, s, b)
	mustUpsert(t, s, c)

	page := pagination.OffsetRequest{Page: 1, Limit: 10}
	items, _, err := s.List(ctx, storage.ArticleFilter{}, page, storage.Sort{Field: storage.SortPublishedAt, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Newer", "Older", "Undated"}, titles(items))

	items, _, err = s.List(ctx, storage.ArticleFilter{}, page, storage.Sort{Field: storage.SortPublishedAt})
	require.NoError(t, err)
	assert.Equal(t, []string{"Older", "Newer", "Undated"}, titles(items))
}

func testFacets(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustUpsert(t, s, article("A", "https://n.example.com/a", "Reuters", "technology", "business"))
	mustUpsert(t, s, article("B", "https://n.example.com/b", "Reuters", "technology"))
	mustUpsert(t, s, article("C", "https://n.example.com/c", "BBC"))

	sources, err := s.ListSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Facet{{Value: "Reuters", Count: 2}, {Value: "BBC", Count: 1}}, sources)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Facet{{Value: "technology", Count: 2}, {Value: "business", Count: 1}}, categories)
}

func testSubscribers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	sub, created, err := s.Subscribe(ctx, domain.Subscriber{
		Email:               "ana@example.com",
		Topics:              []string{"Technology", "science", "technology"},
		Frequency:           domain.FrequencyDaily,
		ReceiveBreakingNews: true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, sub.IsActive)
	assert.Equal(t, []string{"technology", "science"}, sub.Topics)

	_, _, err = s.Subscribe(ctx, domain.Subscriber{Email: "bob@example.com", Frequency: domain.FrequencyWeekly})
	require.NoError(t, err)

	require.NoError(t, s.Unsubscribe(ctx, "ana@example.com"))
	active, err := s.ListSubscribers(ctx, domain.SubscriberFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "bob@example.com", active[0].Email)

	again, created, err := s.Subscribe(ctx, domain.Subscriber{
		Email:     "ana@example.com",
		Topics:    []string{"health"},
		Frequency: domain.FrequencyMonthly,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sub.ID, again.ID)
	assert.True(t, again.IsActive)
	assert.Equal(t, domain.FrequencyMonthly, again.Frequency)

	updated, err := s.UpdateTopics(ctx, "ana@example.com", []string{"Sports", "health"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sports", "health"}, updated.Topics)

	byTopic, err := s.ListSubscribers(ctx, domain.SubscriberFilter{Topic: "sports"})
	require.NoError(t, err)
	require.Len(t, byTopic, 1)
	assert.Equal(t, "ana@example.com", byTopic[0].Email)

	weekly, err := s.ListSubscribers(ctx, domain.SubscriberFilter{Frequency: domain.FrequencyWeekly})
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, "bob@example.com", weekly[0].Email)

	var nf *apperr.NotFoundError
	assert.ErrorAs(t, s.Unsubscribe(ctx, "nobody@example.com"), &nf)
	_, err = s.UpdateTopics(ctx, "nobody@example.com", nil)
	assert.ErrorAs(t, err, &nf)
	_, err = s.GetSubscriber(ctx, "nobody@example.com")
	assert.ErrorAs(t, err, &nf)
}

func testStats(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUpsert(t, s, article("A", "https://n.example.com/a", "S"))
	b := mustUpsert(t, s, article("B", "https://n.example.com/b", "S"))

	zero, err := s.Stats(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, zero.Views)

	for range 3 {
		_, err = s.Track(ctx, a.ID, domain.StatsView)
		require.NoError(t, err)
	}
	_, err = s.Track(ctx, b.ID, domain.StatsView)
	require.NoError(t, err)
	_, err = s.Track(ctx, a.ID, domain.StatsShare)
	require.NoError(t, err)

	_, err = s.Track(ctx, b.ID, domain.StatsUnbookmark)
	require.NoError(t, err)
	st, err := s.Track(ctx, b.ID, domain.StatsBookmark)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Bookmarks)

	st, err = s.Stats(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Views)
	assert.Equal(t, int64(1), st.Shares)

	top, err := s.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Title)
	assert.Equal(t, int64(3), top[0].Stats.Views)

	var nf *apperr.NotFoundError
	_, err = s.Track(ctx, uuid.New(), domain.StatsView)
	assert.ErrorAs(t, err, &nf)
	_, err = s.Stats(ctx, uuid.New())
	assert.ErrorAs(t, err, &nf)
}
