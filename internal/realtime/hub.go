// Package realtime pushes newly stored articles to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	defaultSendTimeout       = 5 * time.Second
)

// Conn is one subscriber of the broadcast.
type Conn interface {
	ID() string
	Send(ctx context.Context, msg []byte) error
	Ping(ctx context.Context) error
	Close() error
}

type HubOption func(*Hub)

func WithHeartbeat(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

func WithSendTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.sendTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// Hub is the registry of live connections. Delivery is at most once; a client
// that connects after a broadcast never sees it.
type Hub struct {
	mu          sync.RWMutex
	conns       map[string]Conn
	heartbeat   time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		conns:       make(map[string]Conn),
		heartbeat:   DefaultHeartbeatInterval,
		sendTimeout: defaultSendTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds c and returns a func that removes and closes it. The func is idempotent.
func (h *Hub) Register(c Conn) func() {
	h.mu.Lock()
	h.conns[c.ID()] = c
	n := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("realtime client connected", "conn", c.ID(), "clients", n)

	var once sync.Once
	return func() {
		once.Do(func() { h.Remove(c.ID()) })
	}
}

// Remove drops the connection with id and closes it.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	c, ok := h.conns[id]
	delete(h.conns, id)
	n := len(h.conns)
	h.mu.Unlock()

	if !ok {
		return
	}
	_ = c.Close()
	h.logger.Info("realtime client disconnected", "conn", id, "clients", n)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) snapshot() []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	return out
}

// Broadcast serializes the article once and sends it to every current connection.
// Connections that fail to receive are removed.
func (h *Hub) Broadcast(ctx context.Context, article *domain.Article) {
	if article == nil {
		return
	}
	conns := h.snapshot()
	if len(conns) == 0 {
		return
	}

	msg, err := json.Marshal(article)
	if err != nil {
		h.logger.Error("failed to marshal article for broadcast", "id", article.ID, "error", err)
		return
	}

	failed := h.each(ctx, conns, func(ctx context.Context, c Conn) error {
		return c.Send(ctx, msg)
	})
	for _, id := range failed {
		h.Remove(id)
	}

	h.logger.Debug("article broadcast", "id", article.ID, "clients", len(conns)-len(failed), "dropped", len(failed))
}

// each runs fn against every connection concurrently with the send timeout and
// returns the ids that failed.
func (h *Hub) each(ctx context.Context, conns []Conn, fn func(context.Context, Conn) error) []string {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.sendTimeout)
			defer cancel()
			if err := fn(cctx, c); err != nil {
				h.logger.Debug("realtime send failed", "conn", c.ID(), "error", err)
				mu.Lock()
				failed = append(failed, c.ID())
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return failed
}

// Run pings every connection each heartbeat interval until ctx is done,
// then closes all connections.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.CloseAll()
			return
		case <-ticker.C:
			h.Heartbeat(ctx)
		}
	}
}

// Heartbeat pings all connections once and removes the ones that fail.
func (h *Hub) Heartbeat(ctx context.Context) {
	failed := h.each(ctx, h.snapshot(), func(ctx context.Context, c Conn) error {
		return c.Ping(ctx)
	})
	for _, id := range failed {
		h.Remove(id)
	}
}

func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		h.Remove(c.ID())
	}
}
