package l1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/models"
)

func createTestBigCacheConfig() *cache.BigCacheConfig {
	return &cache.BigCacheConfig{
		Enabled: true,
		Size:    10,
	}
}

func newTestCache(t *testing.T, opts ...Option) *BigCache {
	t.Helper()
	c, err := NewBigCache(createTestBigCacheConfig(), time.Minute, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type recordingMetrics struct {
	cache.NoopMetrics
	mu     sync.Mutex
	errors []string
}

func (r *recordingMetrics) RecordCacheError(level, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, level+":"+kind)
}

func TestNewBigCache(t *testing.T) {
	c := newTestCache(t)

	assert.NotNil(t, c.cache)
	assert.True(t, c.statsScheduler.IsRunning())
}

func TestBigCache_Set_And_Get(t *testing.T) {
	c := newTestCache(t)

	resp := models.NewCachedResponse(http.StatusOK, http.Header{"X-Test": []string{"1"}}, []byte("test-value"), time.Minute)
	c.Set("test-key", resp)

	result, found := c.Get("test-key")

	assert.True(t, found)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, []byte("test-value"), result.Body)
	assert.Equal(t, "1", result.Header.Get("X-Test"))
	assert.Equal(t, 1, c.Len())
}

func TestBigCache_Get_NotFound(t *testing.T) {
	c := newTestCache(t)

	result, found := c.Get("non-existent-key")

	assert.False(t, found)
	assert.Nil(t, result)
}

func TestBigCache_Get_Expired(t *testing.T) {
	c := newTestCache(t)

	now := time.Now().Unix()
	entry := models.CachedResponse{StatusCode: http.StatusOK, Body: []byte("old"), CreatedAt: now - 200, ExpiresAt: now - 10}
	data, _ := json.Marshal(entry)
	require.NoError(t, c.cache.Set("expired-key", data))

	result, found := c.Get("expired-key")

	assert.False(t, found)
	assert.Nil(t, result)
	_, err := c.cache.Get("expired-key")
	assert.Error(t, err, "expired entry should be evicted on read")
}

func TestBigCache_Set_SkipsExpired(t *testing.T) {
	c := newTestCache(t)

	now := time.Now().Unix()
	c.Set("key", &models.CachedResponse{CreatedAt: now - 20, ExpiresAt: now - 10})
	c.Set("nil", nil)

	assert.Equal(t, 0, c.Len())
}

func TestBigCache_Get_CorruptedEntry(t *testing.T) {
	metrics := &recordingMetrics{}
	c := newTestCache(t, WithMetrics(metrics))

	require.NoError(t, c.cache.Set("corrupt", []byte("not-json")))

	result, found := c.Get("corrupt")

	assert.False(t, found)
	assert.Nil(t, result)
	assert.Equal(t, []string{"l1:decode"}, metrics.errors)
}

func TestBigCache_Set_TooLarge(t *testing.T) {
	metrics := &recordingMetrics{}
	cfg := &cache.BigCacheConfig{Size: 10, MaxEntrySize: 256}
	c, err := NewBigCache(cfg, time.Minute, WithMetrics(metrics))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	c.Set("big", models.NewCachedResponse(http.StatusOK, nil, []byte(strings.Repeat("x", 1024)), time.Minute))

	_, found := c.Get("big")
	assert.False(t, found)
	assert.Equal(t, []string{"l1:entry_too_large"}, metrics.errors)
}

func TestBigCache_Delete(t *testing.T) {
	c := newTestCache(t)

	c.Set("test-key", models.NewCachedResponse(http.StatusOK, nil, []byte("v"), time.Minute))
	_, found := c.Get("test-key")
	assert.True(t, found)

	c.Delete("test-key")
	c.Delete("non-existent")

	_, found = c.Get("test-key")
	assert.False(t, found)
}

func TestBigCache_Concurrent_Access(t *testing.T) {
	c := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				c.Set(key, models.NewCachedResponse(http.StatusOK, nil, []byte(key), time.Minute))
				result, found := c.Get(key)
				if assert.True(t, found) {
					assert.Equal(t, []byte(key), result.Body)
				}
			}
		}(i)
	}
	wg.Wait()
}
