package permission

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is an in-process cache for single instance deployments and
// local development. Entries expire after the TTL given at construction; the
// per-call ttl argument of Set is ignored.
type MemoryCache struct {
	lru *expirable.LRU[int64, []string]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{lru: expirable.NewLRU[int64, []string](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, roleID int64) CacheResult {
	perms, ok := c.lru.Get(roleID)
	if !ok {
		return Miss()
	}
	return Hit(NewSet(perms))
}

func (c *MemoryCache) Set(_ context.Context, roleID int64, permissions []string, _ time.Duration) error {
	cp := make([]string, len(permissions))
	copy(cp, permissions)
	c.lru.Add(roleID, cp)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, roleID int64) error {
	c.lru.Remove(roleID)
	return nil
}

func (c *MemoryCache) Ping(context.Context) error {
	return nil
}
