package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

// NewRedisStore creates a Redis-backed store keeping one JSON blob per
// prefixed key. Documents carry no expiration: like the file backend, a key
// stays until it is overwritten.
func NewRedisStore(redisClient *redis.Client, keyPrefix string) Store {
	return &redisStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (s *redisStore) Load(ctx context.Context, key string, out any) (bool, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, fmt.Errorf("failed to decode cache %s: %w", key, err)
	}

	return true, nil
}

func (s *redisStore) Save(ctx context.Context, key string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode cache %s: %w", key, err)
	}

	if err := s.redisClient.Set(ctx, s.keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache %s: %w", key, err)
	}

	return nil
}
