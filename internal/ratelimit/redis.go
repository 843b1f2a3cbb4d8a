package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed windows across instances using INCR with a PEXPIRE set on
// the first hit of each window
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	period time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		period: period,
	}
}

func (r *RedisLimiter) key(clientKey string) string {
	return "ratelimit:" + r.prefix + ":" + clientKey
}

func (r *RedisLimiter) Allow(ctx context.Context, clientKey string) (Decision, error) {
	key := r.key(clientKey)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count request: %w", err)
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read window ttl: %w", err)
	}
	// first hit of a window, or a key left without expiry by an earlier failure
	if count == 1 || ttl < 0 {
		if err := r.client.PExpire(ctx, key, r.period).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to start window: %w", err)
		}
		ttl = r.period
	}

	return decide(int(count), r.limit, time.Now().Add(ttl)), nil
}
