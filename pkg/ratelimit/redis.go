package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a drop-in Store for multi-instance deployments. The fixed
// window is carried by key expiry: the first hit sets a TTL equal to the
// window and later hits inherit the remaining TTL as their reset time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	rkey := s.prefix + key

	count, err := s.client.Incr(ctx, rkey).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, rkey, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return count, time.Now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, rkey).Result()
	if err != nil || ttl < 0 {
		// Key lost its TTL (e.g. manual intervention); re-arm the window.
		s.client.PExpire(ctx, rkey, window)
		ttl = window
	}
	return count, time.Now().Add(ttl), nil
}
