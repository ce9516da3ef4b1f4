package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/status-im/proxy-chain/models"
)

//go:generate mockgen -package=mock -source=interfaces.go -destination=mock/cache.go

// Cache stores upstream responses so repeated requests can complete without a round trip
type Cache interface {
	Get(key string) (*models.CachedResponse, bool)
	Set(key string, resp *models.CachedResponse)
	Delete(key string)
}

// LevelAwareCache extends Cache with level-aware lookups
type LevelAwareCache interface {
	Cache
	GetWithLevel(key string) *models.CacheResult
}

// KeyDbClient defines the interface for KeyDB/Redis client operations
type KeyDbClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// MetricsRecorder defines the interface for recording cache metrics
type MetricsRecorder interface {
	RecordCacheHit(level string, itemAge time.Duration)
	RecordCacheMiss()
	RecordCacheError(level, kind string)
	UpdateL1CacheStats(capacity, entries int64)
}

// NoopMetrics is a no-operation metrics recorder that discards all metrics
type NoopMetrics struct{}

func (NoopMetrics) RecordCacheHit(level string, itemAge time.Duration) {}
func (NoopMetrics) RecordCacheMiss()                                   {}
func (NoopMetrics) RecordCacheError(level, kind string)                {}
func (NoopMetrics) UpdateL1CacheStats(capacity, entries int64)         {}

// Key builds the cache key for a request
func Key(method, url string) string {
	return method + " " + url
}
