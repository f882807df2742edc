package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-feed/internal/domain"
)

type fakeConn struct {
	id      string
	mu      sync.Mutex
	msgs    [][]byte
	pings   int
	sendErr error
	pingErr error
	closed  bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(_ context.Context, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeConn) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []domain.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Article, 0, len(f.msgs))
	for _, m := range f.msgs {
		var a domain.Article
		if json.Unmarshal(m, &a) == nil {
			out = append(out, a)
		}
	}
	return out
}

func testArticle(title string) *domain.Article {
	return &domain.Article{ID: uuid.New(), Title: title, URL: "https://x.example.com/" + title, Source: "s", Categories: []string{}}
}

func TestHub_BroadcastFanOut(t *testing.T) {
	hub := NewHub()
	a, b := newFakeConn("a"), newFakeConn("b")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(context.Background(), testArticle("first"))

	for _, c := range []*fakeConn{a, b} {
		got := c.received()
		require.Len(t, got, 1)
		assert.Equal(t, "first", got[0].Title)
	}
}

func TestHub_LateJoinerGetsNothing(t *testing.T) {
	hub := NewHub()
	early := newFakeConn("early")
	hub.Register(early)

	hub.Broadcast(context.Background(), testArticle("before"))

	late := newFakeConn("late")
	hub.Register(late)
	assert.Empty(t, late.received())

	hub.Broadcast(context.Background(), testArticle("after"))
	got := late.received()
	require.Len(t, got, 1)
	assert.Equal(t, "after", got[0].Title)
	assert.Len(t, early.received(), 2)
}

func TestHub_SendFailureRemoves(t *testing.T) {
	hub := NewHub()
	ok, broken := newFakeConn("ok"), newFakeConn("broken")
	broken.sendErr = errors.New("broken pipe")
	hub.Register(ok)
	hub.Register(broken)

	hub.Broadcast(context.Background(), testArticle("x"))

	assert.Equal(t, 1, hub.Count())
	assert.True(t, broken.closed)
	assert.Len(t, ok.received(), 1)
}

func TestHub_UnregisterIdempotent(t *testing.T) {
	hub := NewHub()
	c := newFakeConn("c")
	unregister := hub.Register(c)

	unregister()
	unregister()

	assert.Zero(t, hub.Count())
	assert.True(t, c.closed)
}

func TestHub_HeartbeatRemovesDead(t *testing.T) {
	hub := NewHub()
	alive, dead := newFakeConn("alive"), newFakeConn("dead")
	dead.pingErr = assert.AnError
	hub.Register(alive)
	hub.Register(dead)

	hub.Heartbeat(context.Background())

	assert.Equal(t, 1, hub.Count())
	assert.Equal(t, 1, alive.pings)
	assert.True(t, dead.closed)
}

func TestHub_RunClosesOnCancel(t *testing.T) {
	hub := NewHub(WithHeartbeat(10 * time.Millisecond))
	c := newFakeConn("c")
	hub.Register(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.pings >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Zero(t, hub.Count())
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.Broadcast(context.Background(), testArticle("nobody"))
		hub.Broadcast(context.Background(), nil)
	})
}
