package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

func dial(t *testing.T, srv *httptest.Server, origin string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, err := websocket.Dial(url, "", origin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func receive(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg string
	require.NoError(t, websocket.Message.Receive(ws, &msg))
	return msg
}

func TestHandler_EndToEnd(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(Handler(hub))
	t.Cleanup(srv.Close)

	first := dial(t, srv, "http://localhost/")
	second := dial(t, srv, "http://localhost/")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(t.Context(), testArticle("live"))

	for _, ws := range []*websocket.Conn{first, second} {
		var got domain.Article
		require.NoError(t, json.Unmarshal([]byte(receive(t, ws)), &got))
		assert.Equal(t, "live", got.Title)
	}
}

func TestHandler_PingPong(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(Handler(hub))
	t.Cleanup(srv.Close)

	ws := dial(t, srv, "http://localhost/")
	require.NoError(t, websocket.Message.Send(ws, `{"type":"ping"}`))

	assert.JSONEq(t, `{"type":"pong"}`, receive(t, ws))
}

func TestHandler_DisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(Handler(hub))
	t.Cleanup(srv.Close)

	ws := dial(t, srv, "http://localhost/")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsOrigin(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(Handler(hub, WithAllowedOrigins("https://news.example.com")))
	t.Cleanup(srv.Close)

	_, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", "https://evil.example.com")
	assert.Error(t, err)
	assert.Zero(t, hub.Count())
}

func TestHandler_PassiveClientStaysRegistered(t *testing.T) {
	hub := NewHub(WithHeartbeat(50*time.Millisecond), WithSendTimeout(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	srv := httptest.NewServer(Handler(hub))
	t.Cleanup(srv.Close)

	ws := dial(t, srv, "http://localhost/")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Several heartbeats pass without the client sending anything.
	time.Sleep(400 * time.Millisecond)
	require.Equal(t, 1, hub.Count())

	hub.Broadcast(ctx, testArticle("after heartbeats"))

	var got domain.Article
	require.NoError(t, json.Unmarshal([]byte(receive(t, ws)), &got))
	assert.Equal(t, "after heartbeats", got.Title)
	assert.Equal(t, 1, hub.Count())
}

func TestWSConn_PingFailsOnClosedConn(t *testing.T) {
	hub := NewHub()
	conns := make(chan *wsConn, 1)
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		c := newWSConn(ws)
		conns <- c
		_ = c.Close()
	}))
	t.Cleanup(srv.Close)

	dial(t, srv, "http://localhost/")
	c := <-conns

	ctx, cancel := context.WithTimeout(context.Background(), hub.sendTimeout)
	defer cancel()
	assert.Error(t, c.Ping(ctx))
}
