package l2

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/models"
)

// Ensure KeyDBCache implements cache.Cache
var _ cache.Cache = (*KeyDBCache)(nil)

// KeyDBCache implements the shared L2 response cache using Redis/KeyDB
type KeyDBCache struct {
	client  cache.KeyDbClient
	cfg     *cache.KeyDBConfig
	logger  logging.Logger
	metrics cache.MetricsRecorder
}

// Option is a functional option for configuring KeyDBCache
type Option func(*KeyDBCache)

// WithLogger sets the logger for KeyDBCache
func WithLogger(logger logging.Logger) Option {
	return func(kc *KeyDBCache) {
		kc.logger = logger
	}
}

// WithMetrics sets the metrics recorder for KeyDBCache
func WithMetrics(metrics cache.MetricsRecorder) Option {
	return func(kc *KeyDBCache) {
		kc.metrics = metrics
	}
}

// NewKeyDBCache creates a new KeyDBCache instance with provided client
func NewKeyDBCache(cfg *cache.KeyDBConfig, client cache.KeyDbClient, opts ...Option) *KeyDBCache {
	cfg.ApplyDefaults()

	kc := &KeyDBCache{
		client:  client,
		cfg:     cfg,
		logger:  logging.NoopLogger{},
		metrics: cache.NoopMetrics{},
	}

	for _, opt := range opts {
		opt(kc)
	}

	return kc
}

// Get retrieves a cached response from KeyDB
func (kc *KeyDBCache) Get(key string) (*models.CachedResponse, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), kc.cfg.Connection.ReadTimeout)
	defer cancel()

	data, err := kc.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false
		}
		kc.logger.Warn("L2 cache get failed", "key", key, "error", err)
		kc.metrics.RecordCacheError("l2", "redis")
		return nil, false
	}

	var entry models.CachedResponse
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		kc.logger.Error("Failed to unmarshal L2 cache entry", "key", key, "error", err)
		kc.metrics.RecordCacheError("l2", "decode")
		kc.del(key)
		return nil, false
	}

	if entry.IsExpired() {
		kc.del(key)
		return nil, false
	}

	return &entry, true
}

// Set stores a response in KeyDB; the key expires together with the response
func (kc *KeyDBCache) Set(key string, resp *models.CachedResponse) {
	if resp == nil {
		return
	}
	ttl := resp.RemainingTTL()
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		kc.logger.Error("Failed to marshal L2 cache entry", "key", key, "error", err)
		kc.metrics.RecordCacheError("l2", "encode")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), kc.cfg.Connection.SendTimeout)
	defer cancel()

	if err := kc.client.Set(ctx, key, data, ttl).Err(); err != nil {
		kc.logger.Warn("Failed to set L2 cache entry", "key", key, "error", err)
		kc.metrics.RecordCacheError("l2", "redis")
	}
}

// Delete removes entry from KeyDB cache
func (kc *KeyDBCache) Delete(key string) {
	kc.del(key)
}

func (kc *KeyDBCache) del(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), kc.cfg.Connection.SendTimeout)
	defer cancel()

	if err := kc.client.Del(ctx, key).Err(); err != nil {
		kc.logger.Warn("Failed to delete L2 cache entry", "key", key, "error", err)
	}
}

// Close closes the KeyDB connection
func (kc *KeyDBCache) Close() error {
	return kc.client.Close()
}
