package l1

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/models"
	"github.com/status-im/proxy-chain/scheduler"
)

// Ensure BigCache implements cache.Cache
var _ cache.Cache = (*BigCache)(nil)

const statsInterval = 30 * time.Second

// BigCache implements the in-process L1 response cache using BigCache
type BigCache struct {
	cache          *bigcache.BigCache
	logger         logging.Logger
	metrics        cache.MetricsRecorder
	statsScheduler *scheduler.Scheduler
	maxEntrySize   int
}

// Option is a functional option for configuring BigCache
type Option func(*BigCache)

// WithLogger sets the logger for BigCache
func WithLogger(logger logging.Logger) Option {
	return func(bc *BigCache) {
		bc.logger = logger
	}
}

// WithMetrics sets the metrics recorder for BigCache
func WithMetrics(metrics cache.MetricsRecorder) Option {
	return func(bc *BigCache) {
		bc.metrics = metrics
	}
}

// NewBigCache creates a new BigCache instance. Entries live at most lifeWindow
// inside BigCache regardless of their own expiry.
func NewBigCache(cfg *cache.BigCacheConfig, lifeWindow time.Duration, opts ...Option) (*BigCache, error) {
	cfg.ApplyDefaults()
	if lifeWindow <= 0 {
		lifeWindow = 10 * time.Minute
	}

	config := bigcache.DefaultConfig(lifeWindow)
	config.HardMaxCacheSize = cfg.Size
	config.Verbose = false
	config.MaxEntrySize = cfg.MaxEntrySize
	config.Shards = cfg.Shards

	c, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, err
	}

	bc := &BigCache{
		cache:        c,
		logger:       logging.NoopLogger{},
		metrics:      cache.NoopMetrics{},
		maxEntrySize: cfg.MaxEntrySize,
	}

	for _, opt := range opts {
		opt(bc)
	}

	bc.statsScheduler = scheduler.New(statsInterval, func(context.Context) { bc.updateMetrics() }, scheduler.WithImmediateRun())
	bc.statsScheduler.Start()

	return bc, nil
}

// Get retrieves a cached response, dropping it when expired or undecodable
func (bc *BigCache) Get(key string) (*models.CachedResponse, bool) {
	data, err := bc.cache.Get(key)
	if err != nil {
		return nil, false
	}

	var entry models.CachedResponse
	if err := json.Unmarshal(data, &entry); err != nil {
		bc.logger.Warn("Failed to unmarshal L1 cache entry", "key", key, "error", err)
		bc.metrics.RecordCacheError("l1", "decode")
		_ = bc.cache.Delete(key)
		return nil, false
	}

	if entry.IsExpired() {
		_ = bc.cache.Delete(key)
		return nil, false
	}

	return &entry, true
}

// Set stores a response. Oversized entries are skipped.
func (bc *BigCache) Set(key string, resp *models.CachedResponse) {
	if resp == nil || resp.IsExpired() {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		bc.logger.Error("Failed to marshal cache entry", "key", key, "error", err)
		bc.metrics.RecordCacheError("l1", "encode")
		return
	}

	if len(data) > bc.maxEntrySize {
		bc.logger.Warn("Cache entry too large, skipping L1 cache",
			"key", key,
			"size", len(data),
			"max_size", bc.maxEntrySize)
		bc.metrics.RecordCacheError("l1", "entry_too_large")
		return
	}

	if err := bc.cache.Set(key, data); err != nil {
		bc.logger.Error("Failed to set cache entry", "key", key, "error", err)
		bc.metrics.RecordCacheError("l1", "upstream")
	}
}

// Delete removes entry from cache
func (bc *BigCache) Delete(key string) {
	_ = bc.cache.Delete(key)
}

// Len returns the number of stored entries
func (bc *BigCache) Len() int {
	return bc.cache.Len()
}

// Close stops stats collection and releases the cache
func (bc *BigCache) Close() error {
	bc.statsScheduler.Stop()
	return bc.cache.Close()
}

func (bc *BigCache) updateMetrics() {
	bc.metrics.UpdateL1CacheStats(int64(bc.cache.Capacity()), int64(bc.cache.Len()))
}
