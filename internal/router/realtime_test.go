package router

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/realtime"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestRealtime_BothPathsStream(t *testing.T) {
	e := echo.New()
	hub := realtime.NewHub()
	NewRealtimeRouter(e, hub, nil).Bind()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	for _, path := range []string{"/ws/articles", "/articles/stream"} {
		ws, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, "", "http://localhost/")
		require.NoError(t, err, path)

		require.NoError(t, websocket.Message.Send(ws, `{"type":"ping"}`))
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg string
		require.NoError(t, websocket.Message.Receive(ws, &msg))
		assert.JSONEq(t, `{"type":"pong"}`, msg)
		require.NoError(t, ws.Close())
	}

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
