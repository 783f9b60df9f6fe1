package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "eolnet:throttle:"

// RedisStore keeps counters in Redis so every replica shares one budget.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore wraps client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Incr runs INCR, EXPIRE NX and PTTL in one MULTI/EXEC so the window starts with the
// first request and is never extended by later ones.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	pttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("throttle counter %s: %w", key, err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		// key without expiry, left behind by an interrupted writer
		ttl = window
		if err := s.client.PExpire(ctx, fullKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("throttle counter %s: %w", key, err)
		}
	}
	return incr.Val(), ttl, nil
}
