package ratelimit

import (
	"math"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimit configures a token bucket for one upstream host
type RateLimit struct {
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	Burst              int `yaml:"burst" json:"burst"`
}

// Config holds the fallback limit and per-host overrides
type Config struct {
	Default RateLimit            `yaml:"default" json:"default"`
	Hosts   map[string]RateLimit `yaml:"hosts" json:"hosts"`
}

// Manager hands out one limiter per upstream host
type Manager struct {
	mu            sync.RWMutex
	hostToLimiter map[string]*rate.Limiter
	config        Config
}

// NewManager creates a new per-host rate limiter manager
func NewManager(config Config) *Manager {
	return &Manager{
		hostToLimiter: make(map[string]*rate.Limiter),
		config:        config,
	}
}

// SetConfig applies a new configuration; limiters are rebuilt lazily
func (m *Manager) SetConfig(config Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = config
	for host := range m.hostToLimiter {
		delete(m.hostToLimiter, host)
	}
}

// LimiterFor returns the limiter for the request's host. It matches the
// func(*http.Request) *rate.Limiter hook taken by httpclient.
func (m *Manager) LimiterFor(req *http.Request) *rate.Limiter {
	if req == nil || req.URL == nil {
		return nil
	}
	return m.GetLimiter(req.URL.Host)
}

// GetLimiter returns the limiter for host, creating it if missing
func (m *Manager) GetLimiter(host string) *rate.Limiter {
	m.mu.RLock()
	if lim, ok := m.hostToLimiter[host]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if lim, ok := m.hostToLimiter[host]; ok {
		return lim
	}

	cfg := m.configFor(host)
	limit := limitFor(cfg)
	limiter := rate.NewLimiter(limit, burstFor(cfg, limit))
	m.hostToLimiter[host] = limiter
	return limiter
}

func (m *Manager) configFor(host string) RateLimit {
	if cfg, ok := m.config.Hosts[host]; ok {
		return cfg
	}
	return m.config.Default
}

func limitFor(cfg RateLimit) rate.Limit {
	if cfg.RateLimitPerMinute > 0 {
		return rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	}
	// 0 means unlimited
	return rate.Inf
}

func burstFor(cfg RateLimit, limit rate.Limit) int {
	if cfg.Burst > 0 {
		return cfg.Burst
	}
	if limit == rate.Inf || limit <= 1.0 {
		return 1
	}
	return int(math.Ceil(float64(limit)))
}
