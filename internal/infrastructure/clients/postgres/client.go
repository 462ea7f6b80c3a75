package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicaltriage/pkg/config"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
	"github.com/zatekoja/clinicaltriage/pkg/retry"
)

const pingTimeout = 5 * time.Second

// Client owns the registry's connection pool
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and waits, with backoff, until the server answers.
// The registry table is created by the caller once the pool is live.
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid PostgreSQL settings", err)
	}
	applyPool(db, cfg)

	c := &Client{db: db}
	err = retry.DoWithLog(ctx, retry.DefaultConfig(), "postgres", func() error {
		return c.Ping(ctx)
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).
			Int("attempt", attempt).
			Str("host", cfg.Host).
			Dur("retry_in", nextDelay).
			Msg("Registry database not reachable yet")
	})
	if err != nil {
		_ = db.Close()
		return nil, apperrors.NewExternalError("PostgreSQL unreachable at "+cfg.Host, err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Registry database connected")
	return c, nil
}

func applyPool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// DB exposes the pool to the registry adapter
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping is bounded so a hung server cannot stall /health
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.db.Close()
}
