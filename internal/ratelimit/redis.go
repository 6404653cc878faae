package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisLimiter shares counters across processes. The key's TTL, set on the
// first attempt, anchors the window. Any Redis failure allows the attempt.
type RedisLimiter struct {
	client   *redis.Client
	attempts int
	window   time.Duration
	log      zerolog.Logger
}

func NewRedisLimiter(client *redis.Client, attempts int, window time.Duration, log zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		attempts: attempts,
		window:   window,
		log:      log,
	}
}

func (l *RedisLimiter) Consume(ctx context.Context, key string) Result {
	redisKey := l.redisKey(key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warn().Err(err).Msg("rate limit incr failed, allowing attempt")
		return Result{Allowed: true}
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.log.Warn().Err(err).Msg("rate limit expire failed, allowing attempt")
			return Result{Allowed: true}
		}
	}

	if count <= int64(l.attempts) {
		return Result{Allowed: true}
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		return Result{Allowed: false, RetryAfter: l.window}
	}
	return Result{Allowed: false, RetryAfter: ttl}
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.redisKey(key)).Err()
}

func (l *RedisLimiter) redisKey(key string) string {
	return fmt.Sprintf("login:%s", NormalizeKey(key))
}
