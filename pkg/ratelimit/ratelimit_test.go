package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTokenBucket_AllowAndRefill(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	tb := newTokenBucket(2, 4, clock.Now)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "bucket should be empty")

	// 4 tokens/s -> one token every 250ms
	clock.Advance(250 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock.Advance(10 * time.Second)
	assert.Equal(t, 2, tb.Remaining(), "refill is capped at capacity")
}

func TestTokenBucket_WaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, 0)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucket_WaitReturnsOnceRefilled(t *testing.T) {
	tb := NewTokenBucket(1, 100)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, tb.Wait(ctx))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestManager_FallbackAndRegistered(t *testing.T) {
	m := NewManager(nil)
	assert.Nil(t, m.Limiter("data"))
	assert.NoError(t, m.Wait(context.Background(), "data"))

	tb := NewTokenBucket(1, 0)
	m.Register("paper", tb)
	assert.Same(t, tb, m.Limiter("paper"))

	require.NoError(t, m.Wait(context.Background(), "paper"))
	assert.False(t, tb.Allow())
}
