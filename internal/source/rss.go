package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const rssName = "rss"

// FeedSet maps a category to the feed urls that serve it. The "top" key
// holds the feeds used for the default headline query.
type FeedSet map[string][]string

type RSSOption func(*RSS)

// RSS reads articles from configured RSS/Atom feeds.
// Topic queries read every feed and keep items mentioning the topic.
type RSS struct {
	feeds  FeedSet
	client HTTPClient
	logger *slog.Logger
}

func NewRSS(feeds FeedSet, opts ...RSSOption) *RSS {
	r := &RSS{
		feeds:  feeds,
		client: &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithRSSHTTPClient(client HTTPClient) RSSOption {
	return func(r *RSS) {
		r.client = client
	}
}

func WithRSSLogger(logger *slog.Logger) RSSOption {
	return func(r *RSS) {
		r.logger = logger
	}
}

func (r *RSS) Name() string { return rssName }

func (r *RSS) Fetch(ctx context.Context, q Query) ([]RawArticle, error) {
	var (
		urls   []string
		filter string
	)
	switch q.Kind {
	case KindTop, "":
		urls = r.feeds[string(KindTop)]
	case KindCategory:
		urls = r.feeds[strings.ToLower(q.Value)]
	case KindTopic:
		for _, u := range r.feeds {
			urls = append(urls, u...)
		}
		filter = strings.ToLower(q.Value)
	}

	var (
		items   []RawArticle
		lastErr error
		failed  int
	)
	for _, u := range urls {
		feed, err := r.fetchFeed(ctx, u)
		if err != nil {
			r.logger.Warn("rss feed fetch failed", "url", u, "err", err)
			lastErr = err
			failed++
			continue
		}
		for _, item := range feed.Items {
			raw := toRaw(feed, item, u)
			if q.Kind == KindCategory {
				raw.Category = strings.ToLower(q.Value)
			}
			if filter != "" && !mentions(raw, filter) {
				continue
			}
			items = append(items, raw)
		}
	}

	if failed > 0 && failed == len(urls) {
		return nil, lastErr
	}

	return keepRaw(items), nil
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &ProviderError{Source: r.Name(), Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", "news-feed/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Source: r.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Source: r.Name(), StatusCode: resp.StatusCode, Message: feedURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ProviderError{Source: r.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &ProviderError{Source: r.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("parse feed: %w", err)}
	}
	return feed, nil
}

// feedName is the channel title, or the host serving the feed when the title is blank.
func feedName(feed *gofeed.Feed, feedURL string) string {
	if title := strings.TrimSpace(feed.Title); title != "" {
		return title
	}
	for _, raw := range []string{feed.Link, feedURL} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	return ""
}

func toRaw(feed *gofeed.Feed, item *gofeed.Item, feedURL string) RawArticle {
	raw := RawArticle{
		Title:       StripHTML(item.Title),
		Description: StripHTML(item.Description),
		Content:     StripHTML(item.Content),
		URL:         item.Link,
		SourceName:  feedName(feed, feedURL),
		PublishedAt: item.PublishedParsed,
	}
	if raw.PublishedAt == nil {
		raw.PublishedAt = item.UpdatedParsed
	}
	if item.Image != nil {
		raw.ImageURL = item.Image.URL
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		raw.Author = item.Authors[0].Name
	}
	return raw
}

func mentions(raw RawArticle, topic string) bool {
	text := strings.ToLower(raw.Title + " " + raw.Description + " " + raw.Content)
	return strings.Contains(text, topic)
}

// StripHTML flattens an HTML fragment to whitespace-collapsed text.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
