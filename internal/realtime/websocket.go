package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

type controlMessage struct {
	Type string `json:"type"`
}

var pongMessage = []byte(`{"type":"pong"}`)

type wsConn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.NewString(), ws: ws}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(ctx context.Context, msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return websocket.Message.Send(c.ws, string(msg))
}

// Ping writes a protocol ping frame. Clients answer it below the application
// layer, so the article stream only ever carries articles.
func (c *wsConn) Ping(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	c.ws.PayloadType = websocket.PingFrame
	defer func() { c.ws.PayloadType = websocket.TextFrame }()
	if _, err := c.ws.Write(nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	allowedOrigins []string
}

// WithAllowedOrigins restricts browser origins. Empty or "*" allows any.
func WithAllowedOrigins(origins ...string) HandlerOption {
	return func(c *handlerConfig) {
		c.allowedOrigins = origins
	}
}

// Handler upgrades requests to websocket connections registered with hub.
// Clients may send {"type":"ping"} and receive {"type":"pong"}. A connection
// stays registered until it closes or a ping or send to it fails.
func Handler(hub *Hub, opts ...HandlerOption) http.Handler {
	var cfg handlerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return websocket.Server{
		Handshake: func(wsCfg *websocket.Config, r *http.Request) error {
			origin, err := websocket.Origin(wsCfg, r)
			if err != nil {
				return err
			}
			wsCfg.Origin = origin
			if origin == nil || originAllowed(cfg.allowedOrigins, origin.Scheme+"://"+origin.Host) {
				return nil
			}
			return fmt.Errorf("origin %s not allowed", origin.String())
		},
		Handler: func(ws *websocket.Conn) {
			conn := newWSConn(ws)
			unregister := hub.Register(conn)
			defer unregister()

			for {
				var msg string
				if err := websocket.Message.Receive(ws, &msg); err != nil {
					return
				}

				var ctrl controlMessage
				if json.Unmarshal([]byte(msg), &ctrl) == nil && ctrl.Type == "ping" {
					sctx, cancel := context.WithTimeout(context.Background(), hub.sendTimeout)
					err := conn.Send(sctx, pongMessage)
					cancel()
					if err != nil {
						return
					}
				}
			}
		},
	}
}

func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return true
	}
	return slices.Contains(allowed, origin)
}
