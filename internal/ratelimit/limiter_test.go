package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryLimiterWindow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewMemoryLimiter(5, time.Hour, WithClock(clock.Now))

	for i := 1; i <= 5; i++ {
		d, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 5-i, d.Remaining)
		assert.Equal(t, 5, d.Limit)
	}

	d, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed, "sixth request inside the window is denied")
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, clock.t.Add(time.Hour), d.ResetAt)

	other, err := limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	clock.Advance(time.Hour)
	d, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "window expiry resets the count")
	assert.Equal(t, 4, d.Remaining)
}

func TestMemoryLimiterSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	limiter := NewMemoryLimiter(20, time.Minute, WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		_, _ = limiter.Allow(ctx, fmt.Sprintf("client-%d", i))
	}
	assert.Equal(t, 10, limiter.Len())
	assert.Equal(t, 0, limiter.Sweep())

	clock.Advance(time.Minute)
	assert.Equal(t, 10, limiter.Sweep())
	assert.Equal(t, 0, limiter.Len())
}

func TestMemoryLimiterMaxKeys(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	limiter := NewMemoryLimiter(1, time.Minute, WithClock(clock.Now), WithMaxKeys(3))

	for i := 0; i < 3; i++ {
		_, _ = limiter.Allow(ctx, fmt.Sprintf("client-%d", i))
		clock.Advance(time.Second)
	}

	d, err := limiter.Allow(ctx, "newcomer")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, limiter.Len())

	// client-0 had the earliest reset and was evicted, so it starts a fresh window
	d, err = limiter.Allow(ctx, "client-0")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisLimiter(client, "chat", 2, time.Minute)

	d, err := limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	assert.True(t, mr.Exists("ratelimit:chat:ip"))
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:chat:ip"))

	mr.FastForward(time.Minute)
	d, err = limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
