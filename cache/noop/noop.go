package noop

import (
	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/models"
)

// Ensure NoOpCache implements cache.Cache
var _ cache.Cache = (*NoOpCache)(nil)

// NoOpCache is used when response caching is disabled; every lookup misses
type NoOpCache struct{}

// NewNoOpCache creates a new no-operation cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (n *NoOpCache) Get(key string) (*models.CachedResponse, bool) {
	return nil, false
}

func (n *NoOpCache) Set(key string, resp *models.CachedResponse) {}

func (n *NoOpCache) Delete(key string) {}
