package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestLocker(t *testing.T) {
	mr, c := newRedis(t)
	l := NewLocker(c)
	ctx := context.Background()

	ok, err := l.TryLock(ctx, "register:+62811", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("mwn:lock:register:+62811"))

	ok, err = l.TryLock(ctx, "register:+62811", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Unlock(ctx, "register:+62811"))
	ok, err = l.TryLock(ctx, "register:+62811", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("mwn:lock:register:+62811"))
}

func TestMessageMarker(t *testing.T) {
	mr, c := newRedis(t)
	m := NewMessageMarker(c)
	ctx := context.Background()

	ok, err := m.TryMarkProcessing(ctx, "no_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.TryMarkProcessing(ctx, "no_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.MarkProcessed(ctx, "no_1", 0))
	v, err := mr.Get("mwn:msg:processed:no_1")
	require.NoError(t, err)
	assert.Equal(t, "completed", v)
	assert.Equal(t, processedTTL, mr.TTL("mwn:msg:processed:no_1"))

	require.NoError(t, m.UnmarkProcessing(ctx, "no_1"))
	ok, err = m.TryMarkProcessing(ctx, "no_1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMessageMarkerRedisDown(t *testing.T) {
	mr, c := newRedis(t)
	mr.Close()

	_, err := NewMessageMarker(c).TryMarkProcessing(context.Background(), "no_2", time.Hour)
	assert.Error(t, err)
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 4, 26, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", 2, 30*time.Second)
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)

	now = now.Add(31 * time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, "half-open", StateHalfOpen.String())
}
