package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/clinicaltriage/pkg/config"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

const pingTimeout = 2 * time.Second

// Client is the shared connection used by the classifier cache, the event
// bus and, when selected, the patient registry.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and fails fast if the server does not answer a PING
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	c := &Client{rdb: rdb}
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, apperrors.NewExternalError("redis unreachable at "+cfg.RedisAddr(), err)
	}
	return c, nil
}

// Client exposes the go-redis handle to adapters
func (c *Client) Client() *redis.Client {
	return c.rdb
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
