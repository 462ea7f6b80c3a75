package providers

import (
	"context"
	"time"
)

// CacheProvider stores opaque classifier results keyed by normalized text.
// Get reports a miss as an error; a non-positive ttl keeps the entry until evicted.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
