package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
)

const (
	NewsAPIDefaultBaseURL = "https://newsapi.org/v2"
	newsAPIName           = "newsapi"
	defaultTimeout        = 15 * time.Second
	defaultPageSize       = 50
	maxBodyBytes          = 5 * 1024 * 1024
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type NewsAPIOption func(client *NewsAPI)

// NewsAPI talks to newsapi.org style endpoints: top-headlines for the default feed
// and categories, everything for topics.
type NewsAPI struct {
	base     url.URL
	apiKey   string
	country  string
	language string
	pageSize int
	http     HTTPClient
}

func NewNewsAPI(apiKey string, opts ...NewsAPIOption) (*NewsAPI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.NewConfig("NEWS_API_KEY", "news provider api key is not set")
	}

	base, _ := url.Parse(NewsAPIDefaultBaseURL)
	client := &NewsAPI{
		base:     *base,
		apiKey:   apiKey,
		country:  "us",
		language: "en",
		pageSize: defaultPageSize,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func WithBaseURL(raw string) NewsAPIOption {
	return func(client *NewsAPI) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			client.base = *u
		}
	}
}

func WithHTTPClient(httpClient HTTPClient) NewsAPIOption {
	return func(client *NewsAPI) {
		client.http = httpClient
	}
}

func WithTimeout(d time.Duration) NewsAPIOption {
	return func(client *NewsAPI) {
		if d > 0 {
			client.http = &http.Client{Timeout: d}
		}
	}
}

func WithCountry(country string) NewsAPIOption {
	return func(client *NewsAPI) {
		if country != "" {
			client.country = strings.ToLower(country)
		}
	}
}

func WithPageSize(size int) NewsAPIOption {
	return func(client *NewsAPI) {
		if size > 0 && size <= 100 {
			client.pageSize = size
		}
	}
}

func (c *NewsAPI) Name() string { return newsAPIName }

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Author      *string `json:"author"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

func (c *NewsAPI) Fetch(ctx context.Context, q Query) ([]RawArticle, error) {
	path, params, err := c.request(q)
	if err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := c.do(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	items := make([]RawArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		raw := RawArticle{
			Title:       a.Title,
			Description: deref(a.Description),
			Content:     trimTruncationMarker(deref(a.Content)),
			URL:         a.URL,
			ImageURL:    deref(a.URLToImage),
			SourceName:  a.Source.Name,
			Author:      deref(a.Author),
		}
		if q.Kind == KindCategory {
			raw.Category = q.Value
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			raw.PublishedAt = &t
		}
		items = append(items, raw)
	}

	return keepRaw(items), nil
}

func (c *NewsAPI) request(q Query) (string, url.Values, error) {
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	switch q.Kind {
	case KindTop, "":
		params.Set("country", c.country)
		return "/top-headlines", params, nil
	case KindCategory:
		if q.Value == "" {
			return "", nil, apperr.NewValidation("category query requires a value")
		}
		params.Set("country", c.country)
		params.Set("category", strings.ToLower(q.Value))
		return "/top-headlines", params, nil
	case KindTopic:
		if q.Value == "" {
			return "", nil, apperr.NewValidation("topic query requires a value")
		}
		params.Set("q", q.Value)
		params.Set("language", c.language)
		params.Set("sortBy", "publishedAt")
		return "/everything", params, nil
	default:
		return "", nil, apperr.NewValidation(fmt.Sprintf("unsupported query kind %q", q.Kind))
	}
}

func (c *NewsAPI) do(ctx context.Context, path string, params url.Values, respData *newsAPIResponse) error {
	reqURL := c.base.JoinPath(path)
	reqURL.RawQuery = params.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return &ProviderError{Source: c.Name(), Err: fmt.Errorf("create request: %w", err)}
	}
	request.Header.Set("X-Api-Key", c.apiKey)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", "news-feed/1.0")

	resp, err := c.http.Do(request)
	if err != nil {
		return &ProviderError{Source: c.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &ProviderError{Source: c.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{Source: c.Name(), StatusCode: resp.StatusCode}
		var payload newsAPIResponse
		if json.Unmarshal(body, &payload) == nil {
			perr.Code = payload.Code
			perr.Message = payload.Message
		}
		return perr
	}

	if err := json.Unmarshal(body, respData); err != nil {
		return &ProviderError{Source: c.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if respData.Status == "error" {
		return &ProviderError{
			Source:     c.Name(),
			StatusCode: resp.StatusCode,
			Code:       respData.Code,
			Message:    respData.Message,
		}
	}

	return nil
}

var truncationMarker = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)

// trimTruncationMarker strips the "[+123 chars]" suffix the provider appends to snippets.
func trimTruncationMarker(s string) string {
	return truncationMarker.ReplaceAllString(s, "")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
