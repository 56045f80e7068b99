package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a Redis client and verifies it with a ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("permission: redis ping: %w", err)
	}

	return client, nil
}

// RedisCache keeps permission sets in a shared Redis as JSON arrays.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, roleID int64) CacheResult {
	raw, err := c.client.Get(ctx, CacheKey(roleID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Miss()
		}
		return Fault(fmt.Errorf("redis get: %w", err))
	}

	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return Fault(fmt.Errorf("decode cached permissions: %w", err))
	}
	return Hit(NewSet(perms))
}

func (c *RedisCache) Set(ctx context.Context, roleID int64, permissions []string, ttl time.Duration) error {
	if permissions == nil {
		permissions = []string{}
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	if err := c.client.Set(ctx, CacheKey(roleID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, roleID int64) error {
	if err := c.client.Del(ctx, CacheKey(roleID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
