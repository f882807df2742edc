package router

import (
	"net/http"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/storage"
	"github.com/labstack/echo/v4"
)

type NewsletterRouter struct {
	e           *echo.Echo
	subscribers storage.SubscriberStore
}

func NewNewsletterRouter(e *echo.Echo, subscribers storage.SubscriberStore) *NewsletterRouter {
	return &NewsletterRouter{
		e:           e,
		subscribers: subscribers,
	}
}

func (r *NewsletterRouter) Bind() {
	g := r.e.Group("/newsletter")
	g.POST("/subscribe", r.subscribeHandler)
	g.DELETE("/unsubscribe/:email", r.unsubscribeHandler)
	g.PATCH("/:email/categories", r.updateTopicsHandler)
	g.GET("/subscribers", r.listHandler)
}

type SubscribeRequest struct {
	Email               string   `json:"email"`
	Categories          []string `json:"categories"`
	Frequency           string   `json:"frequency"`
	ReceiveBreakingNews *bool    `json:"receiveBreakingNews"`
}

type UpdateTopicsRequest struct {
	Categories []string `json:"categories"`
}

// subscribeHandler godoc
// @Summary Subscribe to the newsletter
// @Description Creates the subscription, or updates and reactivates an existing one for the same email.
// @Description receiveBreakingNews defaults to true when omitted.
// @Tags newsletter
// @Accept json
// @Produce json
// @Param body body SubscribeRequest true "Subscription"
// @Success 200 {object} domain.Subscriber
// @Failure 400 {object} map[string]string
// @Router /newsletter/subscribe [post]
func (r *NewsletterRouter) subscribeHandler(c echo.Context) error {
	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return err
	}
	freq, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		return err
	}

	breaking := true
	if req.ReceiveBreakingNews != nil {
		breaking = *req.ReceiveBreakingNews
	}

	sub, _, err := r.subscribers.Subscribe(c.Request().Context(), domain.Subscriber{
		Email:               email,
		Topics:              req.Categories,
		Frequency:           freq,
		ReceiveBreakingNews: breaking,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// unsubscribeHandler godoc
// @Summary Unsubscribe from the newsletter
// @Tags newsletter
// @Param email path string true "Subscriber email"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /newsletter/unsubscribe/{email} [delete]
func (r *NewsletterRouter) unsubscribeHandler(c echo.Context) error {
	email, err := domain.NormalizeEmail(c.Param("email"))
	if err != nil {
		return err
	}
	if err := r.subscribers.Unsubscribe(c.Request().Context(), email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// updateTopicsHandler godoc
// @Summary Replace subscribed categories
// @Tags newsletter
// @Accept json
// @Produce json
// @Param email path string true "Subscriber email"
// @Param body body UpdateTopicsRequest true "Categories"
// @Success 200 {object} domain.Subscriber
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /newsletter/{email}/categories [patch]
func (r *NewsletterRouter) updateTopicsHandler(c echo.Context) error {
	email, err := domain.NormalizeEmail(c.Param("email"))
	if err != nil {
		return err
	}
	var req UpdateTopicsRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	sub, err := r.subscribers.UpdateTopics(c.Request().Context(), email, req.Categories)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// listHandler godoc
// @Summary List active subscribers
// @Tags newsletter
// @Produce json
// @Param frequency query string false "daily, weekly or monthly"
// @Param topic query string false "Category tag"
// @Param breakingNews query bool false "Only subscribers receiving breaking news"
// @Success 200 {array} domain.Subscriber
// @Failure 400 {object} map[string]string
// @Router /newsletter/subscribers [get]
func (r *NewsletterRouter) listHandler(c echo.Context) error {
	var filter domain.SubscriberFilter
	if raw := c.QueryParam("frequency"); raw != "" {
		freq, err := domain.ParseFrequency(raw)
		if err != nil {
			return err
		}
		filter.Frequency = freq
	}
	filter.Topic = c.QueryParam("topic")
	filter.BreakingNews = c.QueryParam("breakingNews") == "true"

	subs, err := r.subscribers.ListSubscribers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []domain.Subscriber{}
	}
	return c.JSON(http.StatusOK, subs)
}
