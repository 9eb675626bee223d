package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options selects the Redis instance backing the read model and event streams.
type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Client wraps the go-redis client with the service's connection policy.
type Client struct {
	*redis.Client
	logger *zap.Logger
}

// NewClient connects and fails unless the server answers a PING within the
// dial timeout.
func NewClient(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	if opts.PoolSize == 0 {
		opts.PoolSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     opts.PoolSize,
	})

	c := &Client{Client: rdb, logger: logger.With(zap.String("redis", opts.Addr))}
	if err := c.Healthy(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	c.logger.Info("redis connected", zap.Int("db", opts.DB), zap.Int("poolSize", opts.PoolSize))
	return c, nil
}

// Healthy pings the server with a bounded wait.
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable at %s: %w", c.Options().Addr, err)
	}
	return nil
}
