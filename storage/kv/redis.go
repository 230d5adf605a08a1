package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/noteshub/backend/core"
)

// redisStore backs the KV store with Redis, for deployments where several
// API instances share the persisted state.
type redisStore struct {
	client *redis.Client
}

var _ core.KVStore = (*redisStore)(nil)

func NewRedisStore(conf core.RedisConfig) core.KVStore {
	return &redisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
	}
}

// NewRedisStoreFromClient wraps an existing client; used by tests.
func NewRedisStoreFromClient(client *redis.Client) core.KVStore {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key, def string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return def, nil
		}
		return "", errors.Wrap(err, "redis get")
	}
	return v, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return errors.Wrap(s.client.Set(ctx, key, value, 0).Err(), "redis set")
}
