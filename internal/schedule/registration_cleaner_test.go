package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	calls  []time.Time
	result int64
	err    error
	block  chan struct{}
}

func (f *fakeDeleter) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.calls = append(f.calls, now)
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func TestCleanExpiredUsesCurrentTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	d := &fakeDeleter{result: 3}
	c := NewRegistrationCleaner(d)
	c.now = func() time.Time { return now }

	n, err := c.CleanExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []time.Time{now}, d.calls)
	assert.Equal(t, now, c.LastRunTime())
}

func TestCleanExpiredWrapsError(t *testing.T) {
	boom := errors.New("connection reset")
	c := NewRegistrationCleaner(&fakeDeleter{err: boom})

	_, err := c.CleanExpired(context.Background())
	assert.ErrorIs(t, err, boom)

	// 失败后允许再次运行
	_, err = c.CleanExpired(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCleanExpiredSkipsWhileRunning(t *testing.T) {
	d := &fakeDeleter{block: make(chan struct{})}
	c := NewRegistrationCleaner(d)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.CleanExpired(context.Background())
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.running
	}, time.Second, 5*time.Millisecond)

	n, err := c.CleanExpired(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)

	close(d.block)
	<-done
}

func TestLoopStopsOnCancel(t *testing.T) {
	c := NewRegistrationCleaner(&fakeDeleter{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Loop(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}
