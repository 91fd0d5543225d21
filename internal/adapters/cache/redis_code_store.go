package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keygate-labs/keygate/internal/domain"
)

// RedisCodeStore implements the single-use secret store on Redis. Redemption
// uses GETDEL so exactly one of any concurrent redeemers wins; expiry is
// Redis-native TTL.
type RedisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore creates a code store backed by Redis string values.
func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func redisCodeKey(kind, key string) string {
	return "keygate:code:" + kind + ":" + key
}

func (s *RedisCodeStore) Issue(ctx context.Context, kind string, payload []byte, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive", domain.ErrInvalidInput)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	key := hex.EncodeToString(buf)

	if err := s.client.Set(ctx, redisCodeKey(kind, key), payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: store code: %v", domain.ErrTransient, err)
	}
	return key, nil
}

func (s *RedisCodeStore) Redeem(ctx context.Context, kind, key string) ([]byte, error) {
	payload, err := s.client.GetDel(ctx, redisCodeKey(kind, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redeem code: %v", domain.ErrTransient, err)
	}
	return payload, nil
}
