package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ViewCache is a JSON-backed Redis cache for read model projections of type T.
// A ttl of 0 stores keys with no expiry.
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewViewCache[T any](client *goredis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger}
}

// Get returns (nil, false) on a miss, a Redis error or an undecodable entry.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("view cache entry undecodable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &v, true
}

// SetOnce stores value under key only if the key is absent. It reports
// whether the write happened.
func (c *ViewCache[T]) SetOnce(ctx context.Context, key string, value *T) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return false
	}
	written, err := c.client.SetNX(ctx, key, data, c.ttl).Result()
	if err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return written
}
