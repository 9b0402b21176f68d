package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"repair-desk/internal/domain"
)

const roleKeyPrefix = "repair-desk:role:"

// RedisRoleCache shares resolved roles across replicas. Redis failures are
// logged and treated as misses. Implements domain.RoleCache.
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisRoleCache creates a Redis-backed role cache from a redis:// URL.
func NewRedisRoleCache(url string, ttl time.Duration, logger *slog.Logger) (*RedisRoleCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return NewRedisRoleCacheWithClient(redis.NewClient(opts), ttl, logger), nil
}

// NewRedisRoleCacheWithClient wraps an existing client.
func NewRedisRoleCacheWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisRoleCache {
	return &RedisRoleCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "redis_role_cache"),
	}
}

func (c *RedisRoleCache) Get(ctx context.Context, identityID string) (domain.Role, bool) {
	val, err := c.client.Get(ctx, roleKeyPrefix+identityID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "role cache read failed", "error", err)
		}
		return "", false
	}

	role := domain.Role(val)
	if !role.Valid() {
		return "", false
	}
	return role, true
}

func (c *RedisRoleCache) Set(ctx context.Context, identityID string, role domain.Role) {
	if err := c.client.Set(ctx, roleKeyPrefix+identityID, string(role), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "role cache write failed", "error", err)
	}
}

func (c *RedisRoleCache) Delete(ctx context.Context, identityID string) {
	if err := c.client.Del(ctx, roleKeyPrefix+identityID).Err(); err != nil {
		c.logger.WarnContext(ctx, "role cache delete failed", "error", err)
	}
}

// Ping checks connectivity.
func (c *RedisRoleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisRoleCache) Close() error {
	return c.client.Close()
}
