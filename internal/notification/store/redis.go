package store

import (
	"context"
	"time"

	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "buscai:notification:dedupe:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) notificationdomain.DedupeStore {
	return &RedisStore{client: client}
}

// Claim sets the key only if absent. The first caller within ttl wins.
func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Unix(), ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
