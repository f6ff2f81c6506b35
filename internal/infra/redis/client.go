package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/infra/config"
)

// Client wraps the go-redis client with lifecycle helpers.
type Client struct {
	rdb *red.Client
	log *zap.Logger
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisSettings, log *zap.Logger) (*Client, error) {
	opts := &red.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:           cfg.DB,
		Password:     cfg.Password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := red.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("connected to redis",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.DB),
	)

	return &Client{rdb: rdb, log: log}, nil
}

// Raw exposes the underlying go-redis client for repositories.
func (c *Client) Raw() *red.Client {
	return c.rdb
}

// HealthCheck pings Redis, used by the readiness probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
