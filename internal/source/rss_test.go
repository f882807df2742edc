package source

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const techFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tech Daily</title>
    <item>
      <title>New chip &amp; compiler released</title>
      <link>https://tech.example.com/chip</link>
      <description><![CDATA[<p>The <b>fastest</b> chip yet.</p>]]></description>
      <pubDate>Mon, 06 May 2024 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Space telescope finds water</title>
      <link>https://tech.example.com/space</link>
      <description>Astronomy news</description>
    </item>
  </channel>
</rss>`

func TestRSS_FetchCategory(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(techFeed))
	})
	rss := NewRSS(FeedSet{"technology": {srv.URL}})

	items, err := rss.Fetch(context.Background(), Category("Technology"))

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "New chip & compiler released", items[0].Title)
	assert.Equal(t, "The fastest chip yet.", items[0].Description)
	assert.Equal(t, "Tech Daily", items[0].SourceName)
	assert.Equal(t, "technology", items[0].Category)
	require.NotNil(t, items[0].PublishedAt)
}

func TestRSS_FetchTopicFilters(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(techFeed))
	})
	rss := NewRSS(FeedSet{"technology": {srv.URL}})

	items, err := rss.Fetch(context.Background(), Topic("Astronomy"))

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://tech.example.com/space", items[0].URL)
}

func TestRSS_UnconfiguredCategoryIsEmpty(t *testing.T) {
	rss := NewRSS(FeedSet{})

	items, err := rss.Fetch(context.Background(), Category("health"))

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRSS_AllFeedsFailing(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	rss := NewRSS(FeedSet{"top": {srv.URL}})

	_, err := rss.Fetch(context.Background(), Top())

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "plain text", StripHTML("  plain \n text "))
	assert.Equal(t, "Hello world & more", StripHTML("<div>Hello <i>world</i> &amp; more</div>"))
	assert.Empty(t, StripHTML(""))
}

type stubSource struct {
	name  string
	items []RawArticle
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, Query) ([]RawArticle, error) {
	s.calls++
	return s.items, s.err
}

func TestMulti_ConcatenatesAndTolerates(t *testing.T) {
	a := &stubSource{name: "a", items: []RawArticle{{Title: "one", URL: "https://a/1"}}}
	b := &stubSource{name: "b", err: errors.New("boom")}
	c := &stubSource{name: "c", items: []RawArticle{{Title: "two", URL: "https://c/2"}}}
	m := NewMulti(nil, a, b, c)

	items, err := m.Fetch(context.Background(), Top())

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "a+b+c", m.Name())
}

func TestMulti_StampsProvider(t *testing.T) {
	a := &stubSource{name: "newsapi", items: []RawArticle{{Title: "one", URL: "https://a/1"}}}
	b := &stubSource{name: "rss", items: []RawArticle{{Title: "two", URL: "https://b/2", Provider: "custom"}}}
	m := NewMulti(nil, a, b)

	items, err := m.Fetch(context.Background(), Top())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "newsapi", items[0].Provider)
	assert.Equal(t, "custom", items[1].Provider)
	assert.Empty(t, a.items[0].Provider)
}

func TestRSS_UntitledFeedFallsBackToHost(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel>
<link>https://www.blog.example.com/</link>
<item><title>Untitled channel post</title><link>https://blog.example.com/p</link></item>
</channel></rss>`))
	})
	rss := NewRSS(FeedSet{"top": {srv.URL}})

	items, err := rss.Fetch(context.Background(), Top())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "blog.example.com", items[0].SourceName)
}

func TestMulti_RoutesBySourceName(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}
	m := NewMulti(nil, a, b)

	_, err := m.Fetch(context.Background(), Query{Kind: KindTop, Source: "b"})

	require.NoError(t, err)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestMulti_StopsOnRateLimitAndConfig(t *testing.T) {
	limited := &stubSource{name: "a", err: &ProviderError{Source: "a", StatusCode: http.StatusTooManyRequests}}
	after := &stubSource{name: "b"}
	m := NewMulti(nil, limited, after)

	_, err := m.Fetch(context.Background(), Top())
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.IsRateLimited())
	assert.Equal(t, 0, after.calls)

	misconfigured := &stubSource{name: "a", err: apperr.NewConfig("NEWS_API_KEY", "missing")}
	m = NewMulti(nil, misconfigured, after)
	_, err = m.Fetch(context.Background(), Top())
	var cerr *apperr.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestMulti_AllFailing(t *testing.T) {
	m := NewMulti(nil, &stubSource{name: "a", err: errors.New("down")})

	_, err := m.Fetch(context.Background(), Top())

	assert.EqualError(t, err, "down")
}
