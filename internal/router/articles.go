package router

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
	"github.com/DjordjeVuckovic/news-feed/pkg/utils"
	"github.com/labstack/echo/v4"
)

const topArticlesLimit = 10

// Searcher runs full-text search against a secondary index.
type Searcher interface {
	Search(ctx context.Context, term string, categories []string, page pagination.OffsetRequest) ([]domain.ScoredArticle, int64, error)
}

type ArticleRouterOption func(*ArticleRouter)

func WithSearcher(s Searcher) ArticleRouterOption {
	return func(r *ArticleRouter) {
		r.searcher = s
	}
}

type ArticleRouter struct {
	e        *echo.Echo
	articles storage.ArticleStore
	stats    storage.StatsStore
	searcher Searcher
}

func NewArticleRouter(e *echo.Echo, articles storage.ArticleStore, stats storage.StatsStore, opts ...ArticleRouterOption) *ArticleRouter {
	r := &ArticleRouter{
		e:        e,
		articles: articles,
		stats:    stats,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ArticleRouter) Bind() {
	g := r.e.Group("/articles")
	g.GET("", r.listHandler)
	g.GET("/sources", r.sourcesHandler)
	g.GET("/categories", r.categoriesHandler)
	g.GET("/search", r.searchHandler)
	g.GET("/top", r.topHandler)
	g.GET("/:id", r.getHandler)
	g.GET("/:id/stats", r.statsHandler)
	g.POST("/:id/view", r.trackHandler(domain.StatsView))
	g.POST("/:id/share", r.trackHandler(domain.StatsShare))
	g.POST("/:id/bookmark", r.bookmarkHandler)
}

// listHandler godoc
// @Summary List articles
// @Description Paginated articles filtered by categories (any match) and a title/content search
// @Tags articles
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(10)
// @Param search query string false "Substring matched against title and content"
// @Param categories query []string false "Category tags, repeatable or comma separated" collectionFormat(multi)
// @Param category query string false "Single category tag"
// @Param source query string false "Source name"
// @Param sortBy query string false "createdAt, updatedAt, publishedAt, title or source" default(createdAt)
// @Param sortOrder query string false "ASC or DESC" default(DESC)
// @Success 200 {object} pagination.OffsetResult[domain.Article]
// @Failure 400 {object} map[string]string
// @Router /articles [get]
func (r *ArticleRouter) listHandler(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return err
	}
	sort, err := storage.ParseSort(c.QueryParam("sortBy"), c.QueryParam("sortOrder"))
	if err != nil {
		return err
	}

	filter := storage.ArticleFilter{
		Categories: parseCategories(c),
		Search:     c.QueryParam("search"),
		Source:     c.QueryParam("source"),
	}

	items, total, err := r.articles.List(c.Request().Context(), filter, page, sort)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewOffsetResult(items, total, page.Page, page.Limit))
}

// getHandler godoc
// @Summary Get an article
// @Tags articles
// @Produce json
// @Param id path string true "Article id (uuid)"
// @Success 200 {object} domain.Article
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /articles/{id} [get]
func (r *ArticleRouter) getHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	article, err := r.articles.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, article)
}

// sourcesHandler godoc
// @Summary Distinct sources with article counts
// @Tags articles
// @Produce json
// @Success 200 {array} domain.Facet
// @Router /articles/sources [get]
func (r *ArticleRouter) sourcesHandler(c echo.Context) error {
	facets, err := r.articles.ListSources(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, facets)
}

// categoriesHandler godoc
// @Summary Distinct categories with article counts
// @Tags articles
// @Produce json
// @Success 200 {array} domain.Facet
// @Router /articles/categories [get]
func (r *ArticleRouter) categoriesHandler(c echo.Context) error {
	facets, err := r.articles.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, facets)
}

// searchHandler godoc
// @Summary Full-text search
// @Description Relevance-ranked search served by Elasticsearch. Returns 501 when search is not configured.
// @Tags articles
// @Produce json
// @Param query query string true "Search text"
// @Param categories query []string false "Category tags" collectionFormat(multi)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(10)
// @Success 200 {object} pagination.OffsetResult[domain.ScoredArticle]
// @Failure 400 {object} map[string]string
// @Failure 501 {object} map[string]string
// @Router /articles/search [get]
func (r *ArticleRouter) searchHandler(c echo.Context) error {
	if r.searcher == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "full-text search is not enabled")
	}
	query := utils.FirstNonEmpty(c.QueryParam("query"), c.QueryParam("q"))
	if query == "" {
		return apperr.NewValidation("query parameter is required")
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}

	items, total, err := r.searcher.Search(c.Request().Context(), query, parseCategories(c), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewOffsetResult(items, total, page.Page, page.Limit))
}

// topHandler godoc
// @Summary Most viewed articles
// @Tags stats
// @Produce json
// @Param limit query int false "Number of articles" default(10)
// @Success 200 {array} domain.ArticleWithStats
// @Router /articles/top [get]
func (r *ArticleRouter) topHandler(c echo.Context) error {
	limit := topArticlesLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperr.NewValidation("limit must be a positive integer")
		}
		limit = min(n, pagination.PageMaxSize)
	}
	items, err := r.stats.Top(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.ArticleWithStats{}
	}
	return c.JSON(http.StatusOK, items)
}

// statsHandler godoc
// @Summary Article analytics counters
// @Tags stats
// @Produce json
// @Param id path string true "Article id (uuid)"
// @Success 200 {object} domain.ArticleStats
// @Failure 404 {object} map[string]string
// @Router /articles/{id}/stats [get]
func (r *ArticleRouter) statsHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	stats, err := r.stats.Stats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// trackHandler godoc
// @Summary Record a view or share
// @Tags stats
// @Produce json
// @Param id path string true "Article id (uuid)"
// @Success 200 {object} domain.ArticleStats
// @Failure 404 {object} map[string]string
// @Router /articles/{id}/view [post]
// @Router /articles/{id}/share [post]
func (r *ArticleRouter) trackHandler(ev domain.StatsEvent) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		stats, err := r.stats.Track(c.Request().Context(), id, ev)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, stats)
	}
}

type BookmarkRequest struct {
	Bookmarked *bool `json:"bookmarked"`
}

// bookmarkHandler godoc
// @Summary Bookmark or unbookmark an article
// @Tags stats
// @Accept json
// @Produce json
// @Param id path string true "Article id (uuid)"
// @Param body body BookmarkRequest true "Bookmark state"
// @Success 200 {object} domain.ArticleStats
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /articles/{id}/bookmark [post]
func (r *ArticleRouter) bookmarkHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req BookmarkRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if req.Bookmarked == nil {
		return apperr.NewValidation("bookmarked is required")
	}

	ev := domain.StatsUnbookmark
	if *req.Bookmarked {
		ev = domain.StatsBookmark
	}
	stats, err := r.stats.Track(c.Request().Context(), id, ev)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
