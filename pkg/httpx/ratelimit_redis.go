package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed window counter in redis, so every replica behind
// a load balancer shares the same budget per key.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	config RateLimitConfig
}

// NewRedisLimiter creates a limiter whose keys live under prefix.
func NewRedisLimiter(client *redis.Client, prefix string, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, config: config}
}

// RedisLimiters is a LimiterFactory sharing one client across profiles.
func RedisLimiters(client *redis.Client, prefix string) LimiterFactory {
	return func(name string, cfg RateLimitConfig) Limiter {
		return NewRedisLimiter(client, prefix+":"+name, cfg)
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: incr: %w", err)
	}

	if count == 1 {
		if err := l.client.PExpire(ctx, k, l.config.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}

	if count <= int64(l.config.RequestsPerWindow) {
		return Decision{Allowed: true}, nil
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		// A key without expiry would block forever, repair it.
		_ = l.client.PExpire(ctx, k, l.config.Window).Err()
		ttl = l.config.Window
	}
	return Decision{Allowed: false, RetryAfter: max(ttl, time.Second)}, nil
}
