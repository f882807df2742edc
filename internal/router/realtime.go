package router

import (
	"github.com/DjordjeVuckovic/news-feed/internal/realtime"
	"github.com/labstack/echo/v4"
)

type RealtimeRouter struct {
	e       *echo.Echo
	hub     *realtime.Hub
	origins []string
}

func NewRealtimeRouter(e *echo.Echo, hub *realtime.Hub, allowedOrigins []string) *RealtimeRouter {
	return &RealtimeRouter{
		e:       e,
		hub:     hub,
		origins: allowedOrigins,
	}
}

// Bind registers the websocket stream of newly stored articles.
// @Summary Live article stream
// @Description WebSocket. Each message is one newly stored article as JSON. Send {"type":"ping"} to receive {"type":"pong"}.
// @Tags realtime
// @Router /ws/articles [get]
func (r *RealtimeRouter) Bind() {
	h := echo.WrapHandler(realtime.Handler(r.hub, realtime.WithAllowedOrigins(r.origins...)))
	r.e.GET("/ws/articles", h)
	r.e.GET("/articles/stream", h)
}
