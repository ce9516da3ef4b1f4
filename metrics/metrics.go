// Package metrics exposes chain, transport and cache activity as Prometheus
// metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/chain"
	"github.com/status-im/proxy-chain/httpclient"
	"github.com/status-im/proxy-chain/manager"
)

const (
	DefaultNamespace = "proxy"
	DefaultSubsystem = "chain"
)

// Config defines configuration for metrics
type Config struct {
	Namespace string // e.g., "nft_proxy", "eth_rpc_proxy"
	Subsystem string // default: "chain"
}

// Metrics holds all Prometheus metrics of the module
type Metrics struct {
	namespace string
	subsystem string

	// Chain metrics
	ChainsStarted  prometheus.Counter
	ChainsFinished *prometheus.CounterVec
	ChainDuration  *prometheus.HistogramVec
	ChainSteps     *prometheus.HistogramVec
	Steps          *prometheus.CounterVec
	ActiveRequests prometheus.Gauge

	// Transport metrics
	HTTPRequests *prometheus.CounterVec
	HTTPRetries  prometheus.Counter

	// Cache metrics
	CacheHits     *prometheus.CounterVec
	CacheMisses   prometheus.Counter
	CacheErrors   *prometheus.CounterVec
	CacheItemAge  *prometheus.HistogramVec
	CacheCapacity *prometheus.GaugeVec
	CacheEntries  *prometheus.GaugeVec
}

var (
	_ chain.MetricsRecorder    = (*Metrics)(nil)
	_ cache.MetricsRecorder    = (*Metrics)(nil)
	_ manager.MetricsRecorder  = (*Metrics)(nil)
	_ httpclient.StatusHandler = (*Metrics)(nil)
)

// New creates the metrics and registers them with reg. A nil reg registers
// with the default Prometheus registry.
func New(cfg Config, reg prometheus.Registerer) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = DefaultSubsystem
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{
		namespace: cfg.Namespace,
		subsystem: cfg.Subsystem,
	}

	m.ChainsStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "started_total",
		Help:      "Total number of chains started",
	})

	m.ChainsFinished = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "finished_total",
			Help:      "Total number of chains finished by terminal state",
		},
		[]string{"state"}, // state: completed|failed|cancelled
	)

	m.ChainDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "duration_seconds",
			Help:      "Time from chain start to terminal state",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"state"},
	)

	m.ChainSteps = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "steps",
			Help:      "Number of steps reached before the terminal state",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
		},
		[]string{"state"},
	)

	m.Steps = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "steps_total",
			Help:      "Total number of finished steps by outcome",
		},
		[]string{"outcome"}, // outcome: success|failure
	)

	m.ActiveRequests = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "active_requests",
		Help:      "Number of registered requests currently running",
	})

	m.HTTPRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of upstream HTTP attempts by status",
		},
		[]string{"status"}, // status: success|error|rate_limited|cancelled
	)

	m.HTTPRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "retries_total",
		Help:      "Total number of upstream HTTP retries",
	})

	m.CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"level"},
	)

	m.CacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total number of cache misses",
	})

	m.CacheErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache errors by kind",
		},
		[]string{"level", "kind"},
	)

	m.CacheItemAge = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "item_age_seconds",
			Help:      "Age of item at hit time",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}, // up to 1 hour
		},
		[]string{"level"},
	)

	m.CacheCapacity = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "capacity_bytes",
			Help:      "L1 cache capacity in bytes",
		},
		[]string{"level"}, // only "l1"
	)

	m.CacheEntries = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "keys",
			Help:      "Current number of keys in cache",
		},
		[]string{"level"},
	)

	return m
}

func (m *Metrics) RecordChainStarted() {
	m.ChainsStarted.Inc()
}

func (m *Metrics) RecordChainFinished(state string, steps int, duration time.Duration) {
	m.ChainsFinished.WithLabelValues(state).Inc()
	m.ChainSteps.WithLabelValues(state).Observe(float64(steps))
	if duration > 0 {
		m.ChainDuration.WithLabelValues(state).Observe(duration.Seconds())
	}
}

func (m *Metrics) RecordStep(outcome string) {
	m.Steps.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetActiveRequests(count int) {
	m.ActiveRequests.Set(float64(count))
}

// OnRequest records an upstream HTTP attempt
func (m *Metrics) OnRequest(status string) {
	m.HTTPRequests.WithLabelValues(status).Inc()
}

// OnRetry records an upstream HTTP retry
func (m *Metrics) OnRetry() {
	m.HTTPRetries.Inc()
}

// RecordCacheHit records a cache hit and the age of the served item
func (m *Metrics) RecordCacheHit(level string, itemAge time.Duration) {
	m.CacheHits.WithLabelValues(level).Inc()
	if itemAge > 0 {
		m.CacheItemAge.WithLabelValues(level).Observe(itemAge.Seconds())
	}
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

func (m *Metrics) RecordCacheError(level, kind string) {
	m.CacheErrors.WithLabelValues(level, kind).Inc()
}

// UpdateL1CacheStats updates L1 cache capacity and key count
func (m *Metrics) UpdateL1CacheStats(capacity, entries int64) {
	m.CacheCapacity.WithLabelValues("l1").Set(float64(capacity))
	m.CacheEntries.WithLabelValues("l1").Set(float64(entries))
}
