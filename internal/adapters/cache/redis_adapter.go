package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// RedisAdapter shares classifier results across replicas.
// Keys are stored under prefix so a flush never touches registry data.
type RedisAdapter struct {
	client redis.Cmdable
	prefix string
}

// NewRedisAdapter wraps any go-redis command interface
func NewRedisAdapter(client redis.Cmdable, prefix string) providers.CacheProvider {
	return &RedisAdapter{client: client, prefix: prefix}
}

func (a *RedisAdapter) key(k string) string {
	return a.prefix + k
}

func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Get(ctx, a.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	case err != nil:
		return nil, fmt.Errorf("redis cache get %s: %w", key, err)
	}
	return result, nil
}

func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := a.client.Set(ctx, a.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, a.key(key)).Err(); err != nil {
		return fmt.Errorf("redis cache delete %s: %w", key, err)
	}
	return nil
}
