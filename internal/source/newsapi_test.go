package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topHeadlinesBody = `{
  "status": "ok",
  "totalResults": 4,
  "articles": [
    {
      "source": {"id": "the-verge", "name": "The Verge"},
      "author": "Jane Doe",
      "title": "AI breakthrough in robotics",
      "description": "A new model walks.",
      "url": "https://example.com/a",
      "urlToImage": "https://example.com/a.png",
      "publishedAt": "2024-05-01T10:00:00Z",
      "content": "Robots can now walk further than ever before [+1234 chars]"
    },
    {
      "source": {"id": null, "name": "Reuters"},
      "author": null,
      "title": "Stock market rally",
      "description": null,
      "url": "https://example.com/b",
      "urlToImage": null,
      "publishedAt": "not-a-date",
      "content": null
    },
    {
      "source": {"id": null, "name": "[Removed]"},
      "title": "[Removed]",
      "url": "https://removed.com"
    },
    {
      "source": {"id": null, "name": "Nobody"},
      "title": "",
      "url": ""
    }
  ]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewNewsAPI_EmptyKeyIsConfigError(t *testing.T) {
	client, err := NewNewsAPI("  ")

	assert.Nil(t, client)
	var cerr *apperr.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "NEWS_API_KEY", cerr.Setting)
}

func TestNewsAPI_FetchTop(t *testing.T) {
	// Arrange
	var gotPath, gotKey, gotCountry string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotCountry = r.URL.Query().Get("country")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(topHeadlinesBody))
	})
	client, err := NewNewsAPI("secret", WithBaseURL(srv.URL))
	require.NoError(t, err)

	// Act
	items, err := client.Fetch(context.Background(), Top())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/top-headlines", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "us", gotCountry)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "AI breakthrough in robotics", first.Title)
	assert.Equal(t, "Robots can now walk further than ever before", first.Content)
	assert.Equal(t, "The Verge", first.SourceName)
	assert.Equal(t, "Jane Doe", first.Author)
	assert.Equal(t, "https://example.com/a.png", first.ImageURL)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, 2024, first.PublishedAt.Year())
	assert.Empty(t, first.Category)

	second := items[1]
	assert.Empty(t, second.Description)
	assert.Empty(t, second.Content)
	assert.Nil(t, second.PublishedAt)
}

func TestNewsAPI_FetchCategoryAndTopic(t *testing.T) {
	var paths []string
	var queries []string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		queries = append(queries, r.URL.Query().Get("category")+r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[{"source":{"name":"BBC"},"title":"t","url":"https://x.io/1"}]}`))
	})
	client, err := NewNewsAPI("k", WithBaseURL(srv.URL), WithCountry("GB"))
	require.NoError(t, err)

	items, err := client.Fetch(context.Background(), Category("Technology"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Technology", items[0].Category)

	_, err = client.Fetch(context.Background(), Topic("artificial intelligence"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/top-headlines", "/everything"}, paths)
	assert.Equal(t, []string{"technology", "artificial intelligence"}, queries)
}

func TestNewsAPI_RateLimited(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"too many requests"}`))
	})
	client, err := NewNewsAPI("k", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Top())

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.IsRateLimited())
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Equal(t, "too many requests", perr.Message)
}

func TestNewsAPI_ErrorPayloadWithOKStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	})
	client, err := NewNewsAPI("k", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Top())

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.IsRateLimited())
	assert.Equal(t, "apiKeyInvalid", perr.Code)
	assert.Contains(t, perr.Error(), "bad key")
}

type failingClient struct{}

func (failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestNewsAPI_NetworkFailure(t *testing.T) {
	client, err := NewNewsAPI("k", WithHTTPClient(failingClient{}))
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Topic("space"))

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Zero(t, perr.StatusCode)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewsAPI_InvalidQuery(t *testing.T) {
	client, err := NewNewsAPI("k")
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Query{Kind: KindCategory})

	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)
}
