package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingHealthChecker(t *testing.T) {
	ok := NewPingHealthChecker(pingerFunc(func(context.Context) error { return nil }))
	down := NewPingHealthChecker(pingerFunc(func(context.Context) error { return errors.New("down") }))
	empty := NewPingHealthChecker(nil)

	assert.True(t, ok.Healthy(context.Background()))
	assert.False(t, down.Healthy(context.Background()))
	assert.False(t, empty.Healthy(context.Background()))
	assert.True(t, NewOkHealthChecker().Healthy(context.Background()))
}
