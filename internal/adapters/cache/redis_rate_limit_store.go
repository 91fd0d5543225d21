package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keygate-labs/keygate/internal/ports"
)

// RedisRateLimitStore implements windowed request throttling in Redis.
type RedisRateLimitStore struct {
	client *redis.Client
}

// NewRedisRateLimitStore creates a rate-limit store backed by Redis hashes.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

func (s *RedisRateLimitStore) Get(ctx context.Context, key string) (ports.RateLimitState, error) {
	data, err := s.client.HGetAll(ctx, "keygate:ratelimit:"+key).Result()
	if err != nil {
		return ports.RateLimitState{}, err
	}
	if len(data) == 0 {
		return ports.RateLimitState{}, nil
	}

	state := ports.RateLimitState{}
	if raw, ok := data["count"]; ok {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			state.Count = n
		}
	}
	if raw, ok := data["limited_until"]; ok && raw != "" {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && unix > 0 {
			t := time.Unix(unix, 0).UTC()
			state.LimitedUntil = &t
		}
	}
	return state, nil
}

func (s *RedisRateLimitStore) Record(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (ports.RateLimitState, error) {
	redisKey := "keygate:ratelimit:" + key

	count, err := s.client.HIncrBy(ctx, redisKey, "count", 1).Result()
	if err != nil {
		return ports.RateLimitState{}, err
	}

	state := ports.RateLimitState{Count: int(count)}
	if int(count) >= threshold {
		limitedUntil := now.Add(window).UTC()
		_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, redisKey, "limited_until", limitedUntil.Unix())
			p.Expire(ctx, redisKey, window)
			return nil
		})
		if err != nil {
			return ports.RateLimitState{}, err
		}
		state.LimitedUntil = &limitedUntil
		return state, nil
	}

	// First hit in a fresh window sets the window-sized TTL; the counter
	// self-clears instead of growing forever.
	_ = s.client.Expire(ctx, redisKey, window).Err()
	return state, nil
}

func (s *RedisRateLimitStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, "keygate:ratelimit:"+key).Err()
}
