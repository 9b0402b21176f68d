package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"repair-desk/internal/domain"
)

const defaultRoleCacheSize = 10_000

// RoleCache is an in-process, size-bounded role cache with TTL.
// Implements domain.RoleCache.
type RoleCache struct {
	lru *expirable.LRU[string, domain.Role]
}

// NewRoleCache creates a role cache whose entries expire after ttl.
func NewRoleCache(size int, ttl time.Duration) *RoleCache {
	if size <= 0 {
		size = defaultRoleCacheSize
	}
	return &RoleCache{lru: expirable.NewLRU[string, domain.Role](size, nil, ttl)}
}

func (c *RoleCache) Get(_ context.Context, identityID string) (domain.Role, bool) {
	return c.lru.Get(identityID)
}

func (c *RoleCache) Set(_ context.Context, identityID string, role domain.Role) {
	c.lru.Add(identityID, role)
}

func (c *RoleCache) Delete(_ context.Context, identityID string) {
	c.lru.Remove(identityID)
}

// Len reports the number of live entries.
func (c *RoleCache) Len() int {
	return c.lru.Len()
}
