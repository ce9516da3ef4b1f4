package multi

import (
	"strings"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/models"
)

// Ensure MultiCache implements cache.Cache and cache.LevelAwareCache
var _ cache.Cache = (*MultiCache)(nil)
var _ cache.LevelAwareCache = (*MultiCache)(nil)

// MultiCache is a tiered cache: lookups walk the levels in order, writes go to every level
type MultiCache struct {
	caches            []cache.Cache
	logger            logging.Logger
	metrics           cache.MetricsRecorder
	enablePropagation bool
}

// Option is a functional option for configuring MultiCache
type Option func(*MultiCache)

// WithLogger sets the logger for MultiCache
func WithLogger(logger logging.Logger) Option {
	return func(mc *MultiCache) {
		mc.logger = logger
	}
}

// WithMetrics sets the hit/miss recorder for MultiCache
func WithMetrics(metrics cache.MetricsRecorder) Option {
	return func(mc *MultiCache) {
		mc.metrics = metrics
	}
}

// NewMultiCache creates a new MultiCache over the given levels, fastest first
func NewMultiCache(caches []cache.Cache, enablePropagation bool, opts ...Option) *MultiCache {
	mc := &MultiCache{
		caches:            caches,
		logger:            logging.NoopLogger{},
		metrics:           cache.NoopMetrics{},
		enablePropagation: enablePropagation,
	}

	for _, opt := range opts {
		opt(mc)
	}

	return mc
}

// Get retrieves a response from the first level that has the key
func (mc *MultiCache) Get(key string) (*models.CachedResponse, bool) {
	result := mc.GetWithLevel(key)
	return result.Response, result.Found
}

// Set stores a response in all levels
func (mc *MultiCache) Set(key string, resp *models.CachedResponse) {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for set operation", "key", key)
		return
	}

	for _, c := range mc.caches {
		c.Set(key, resp)
	}
}

// Delete removes entry from all levels
func (mc *MultiCache) Delete(key string) {
	for _, c := range mc.caches {
		c.Delete(key)
	}
}

// GetCacheCount returns the number of levels
func (mc *MultiCache) GetCacheCount() int {
	return len(mc.caches)
}

// GetWithLevel retrieves a response together with the level it was found at
func (mc *MultiCache) GetWithLevel(key string) *models.CacheResult {
	for i, c := range mc.caches {
		resp, found := c.Get(key)
		if !found {
			continue
		}

		if i > 0 && mc.enablePropagation {
			mc.propagateToEarlierCaches(key, resp, i)
		}

		level := models.CacheLevelFromIndex(i)
		mc.metrics.RecordCacheHit(strings.ToLower(level.String()), resp.Age())

		return &models.CacheResult{
			Response: resp,
			Found:    true,
			Level:    level,
		}
	}

	mc.metrics.RecordCacheMiss()

	return &models.CacheResult{
		Found: false,
		Level: models.CacheLevelMiss,
	}
}

// propagateToEarlierCaches copies a hit from a slower level into the faster ones.
// The stored response keeps its original expiry.
func (mc *MultiCache) propagateToEarlierCaches(key string, resp *models.CachedResponse, foundAtIndex int) {
	if resp == nil || resp.RemainingTTL() <= 0 {
		return
	}

	for i := 0; i < foundAtIndex; i++ {
		mc.caches[i].Set(key, resp)
	}
}
