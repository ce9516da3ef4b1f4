// Package manager keeps track of the top-level requests that are currently
// running so they can be listed and cancelled from outside.
package manager

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/request"
	"github.com/status-im/proxy-chain/scheduler"
)

// IManager defines the interface for tracking running requests
type IManager interface {
	request.Registry

	// Get returns the running request with the given id
	Get(id string) (request.Request, bool)

	// Active returns the running requests ordered by registration time
	Active() []Entry

	// Cancel cancels the running request with the given id
	Cancel(id string) bool

	// CancelAll cancels every running request
	CancelAll() int
}

// MetricsRecorder receives the number of running requests
type MetricsRecorder interface {
	SetActiveRequests(count int)
}

// NoopMetrics discards manager metrics
type NoopMetrics struct{}

func (NoopMetrics) SetActiveRequests(count int) {}

// Entry describes a running request
type Entry struct {
	Request      request.Request
	RegisteredAt time.Time
}

// Manager implements IManager
type Manager struct {
	active  map[string]Entry
	logger  logging.Logger
	metrics MetricsRecorder
	mu      sync.RWMutex

	reporter *scheduler.Scheduler
}

// Ensure Manager implements IManager
var _ IManager = (*Manager)(nil)

// Option is a functional option for configuring Manager
type Option func(*Manager)

// WithLogger sets the logger for Manager
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrNoop(logger)
	}
}

// WithMetrics sets the metrics recorder for Manager
func WithMetrics(metrics MetricsRecorder) Option {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// New creates an empty manager
func New(opts ...Option) *Manager {
	m := &Manager{
		active:  make(map[string]Entry),
		logger:  logging.NoopLogger{},
		metrics: NoopMetrics{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register starts tracking r. Registering a tracked request again is a no-op.
func (m *Manager) Register(r request.Request) {
	if r == nil {
		return
	}

	m.mu.Lock()
	if _, exists := m.active[r.ID()]; exists {
		m.mu.Unlock()
		m.logger.Debug("Request already registered", "id", r.ID())
		return
	}
	m.active[r.ID()] = Entry{Request: r, RegisteredAt: time.Now()}
	count := len(m.active)
	m.mu.Unlock()

	m.logger.Debug("Request registered", "id", r.ID(), "active", count)
	m.metrics.SetActiveRequests(count)
}

// Unregister stops tracking r. Unknown requests are tolerated.
func (m *Manager) Unregister(r request.Request) {
	if r == nil {
		return
	}

	m.mu.Lock()
	if _, exists := m.active[r.ID()]; !exists {
		m.mu.Unlock()
		m.logger.Debug("Unregistering unknown request", "id", r.ID())
		return
	}
	delete(m.active, r.ID())
	count := len(m.active)
	m.mu.Unlock()

	m.logger.Debug("Request unregistered", "id", r.ID(), "active", count)
	m.metrics.SetActiveRequests(count)
}

func (m *Manager) Get(id string) (request.Request, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.active[id]
	return entry.Request, ok
}

func (m *Manager) Active() []Entry {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.active))
	for _, entry := range m.active {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RegisteredAt.Equal(entries[j].RegisteredAt) {
			return entries[i].Request.ID() < entries[j].Request.ID()
		}
		return entries[i].RegisteredAt.Before(entries[j].RegisteredAt)
	})
	return entries
}

// Count returns the number of running requests
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Cancel cancels the request with the given id. The request unregisters
// itself; Cancel does not remove it.
func (m *Manager) Cancel(id string) bool {
	r, ok := m.Get(id)
	if !ok {
		return false
	}

	m.logger.Info("Cancelling request", "id", id)
	r.Cancel()
	return true
}

func (m *Manager) CancelAll() int {
	entries := m.Active()
	for _, entry := range entries {
		entry.Request.Cancel()
	}

	if len(entries) > 0 {
		m.logger.Info("Cancelled all requests", "count", len(entries))
	}
	return len(entries)
}

// StartReporting publishes the active request count every interval
func (m *Manager) StartReporting(interval time.Duration) {
	m.mu.Lock()
	if m.reporter != nil {
		m.mu.Unlock()
		return
	}
	m.reporter = scheduler.New(interval, func(ctx context.Context) {
		m.metrics.SetActiveRequests(m.Count())
	}, scheduler.WithImmediateRun())
	reporter := m.reporter
	m.mu.Unlock()

	reporter.Start()
}

// Stop stops periodic reporting
func (m *Manager) Stop() {
	m.mu.Lock()
	reporter := m.reporter
	m.reporter = nil
	m.mu.Unlock()

	if reporter != nil {
		reporter.Stop()
	}
}
