// Package cache provides a read-through Redis cache for tale lookups.
// Cache failures are logged and treated as misses so Redis outages never
// surface to callers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"fabula/internal/tale"
	id "fabula/pkg/domain"
)

// ErrNotFound signals a cache miss.
var ErrNotFound = errors.New("tale not cached")

// RedisCache stores serialized tales under a per-tale key with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func taleKey(taleID id.TaleID) string {
	return fmt.Sprintf("tale:%s", taleID.String())
}

// Find returns the cached tale or ErrNotFound on a miss. Redis errors are
// logged and reported as misses.
func (c *RedisCache) Find(ctx context.Context, taleID id.TaleID) (tale.Folktale, error) {
	raw, err := c.client.Get(ctx, taleKey(taleID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "tale cache read failed",
				"tale_id", taleID.String(), "error", err)
		}
		return tale.Folktale{}, ErrNotFound
	}
	var f tale.Folktale
	if err := json.Unmarshal(raw, &f); err != nil {
		c.logger.WarnContext(ctx, "tale cache entry corrupt",
			"tale_id", taleID.String(), "error", err)
		return tale.Folktale{}, ErrNotFound
	}
	return f, nil
}

// Save caches the tale. Failures are logged, never returned.
func (c *RedisCache) Save(ctx context.Context, f tale.Folktale) {
	raw, err := json.Marshal(f)
	if err != nil {
		c.logger.WarnContext(ctx, "tale cache marshal failed",
			"tale_id", f.ID.String(), "error", err)
		return
	}
	if err := c.client.Set(ctx, taleKey(f.ID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "tale cache write failed",
			"tale_id", f.ID.String(), "error", err)
	}
}

// Invalidate drops the cached tale after a mutation.
func (c *RedisCache) Invalidate(ctx context.Context, taleID id.TaleID) {
	if err := c.client.Del(ctx, taleKey(taleID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "tale cache invalidation failed",
			"tale_id", taleID.String(), "error", err)
	}
}
