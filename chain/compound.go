// Package chain runs requests made of other requests. ChainedRequest executes
// its steps strictly one after another and reports a single outcome.
package chain

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/request"
)

// CompoundRequest holds what every request made of sub-requests shares: the
// aggregate handlers, the error policy, the lifecycle state and the registry
// bookkeeping.
type CompoundRequest struct {
	id       string
	registry request.Registry
	logger   logging.Logger
	metrics  MetricsRecorder

	mu           sync.Mutex
	state        State
	ignoreErrors bool
	success      request.SuccessFunc
	failure      request.ErrorFunc
	startedAt    time.Time

	// regMu orders Register before Unregister; taken before mu
	regMu      sync.Mutex
	registered bool
	released   bool

	done     chan struct{}
	doneOnce sync.Once
}

func newCompoundRequest() CompoundRequest {
	return CompoundRequest{
		id:      uuid.NewString(),
		logger:  logging.NoopLogger{},
		metrics: NoopMetrics{},
		done:    make(chan struct{}),
	}
}

func (c *CompoundRequest) ID() string {
	return c.id
}

// State returns the current lifecycle state
func (c *CompoundRequest) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IgnoreErrors reports whether failed steps are skipped
func (c *CompoundRequest) IgnoreErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ignoreErrors
}

// SetIgnoreErrors changes the error policy. It takes effect for steps that
// finish after the call.
func (c *CompoundRequest) SetIgnoreErrors(ignore bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignoreErrors = ignore
}

func (c *CompoundRequest) SuccessHandler() request.SuccessFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success
}

func (c *CompoundRequest) ErrorHandler() request.ErrorFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Done is closed when the request reaches a terminal state
func (c *CompoundRequest) Done() <-chan struct{} {
	return c.done
}

func (c *CompoundRequest) setCompletion(success request.SuccessFunc, failure request.ErrorFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.success = success
	c.failure = failure
}

// check reports why a request of n steps cannot begin. Callers hold mu.
func (c *CompoundRequest) check(n int) error {
	if c.state != StateIdle {
		return ErrAlreadyStarted
	}
	if n == 0 {
		return ErrEmptyChain
	}
	return nil
}

// begin moves an idle request with n steps to running. Callers hold mu.
func (c *CompoundRequest) begin(n int) error {
	if err := c.check(n); err != nil {
		return err
	}
	c.state = StateRunning
	c.startedAt = time.Now()
	return nil
}

// settle moves a running request to the terminal state s. Callers hold mu.
func (c *CompoundRequest) settle(s State) bool {
	if c.state.Terminal() {
		return false
	}
	c.state = s
	return true
}

// register adds self to the registry if it is still running
func (c *CompoundRequest) register(self request.Request) {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	if c.registry == nil || c.registered {
		return
	}
	if c.State() != StateRunning {
		return
	}
	c.registry.Register(self)
	c.registered = true
}

// unregister removes self from the registry at most once
func (c *CompoundRequest) unregister(self request.Request) {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	if !c.registered || c.released {
		return
	}
	c.registry.Unregister(self)
	c.released = true
}

// cancel moves an idle or running request to cancelled. It reports false
// when the request had already finished.
func (c *CompoundRequest) cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settle(StateCancelled)
}

// finish records the terminal state s and wakes Done waiters
func (c *CompoundRequest) finish(self request.Request, s State, steps int) {
	c.mu.Lock()
	startedAt := c.startedAt
	c.mu.Unlock()

	var elapsed time.Duration
	if !startedAt.IsZero() {
		elapsed = time.Since(startedAt)
	}

	c.unregister(self)
	c.metrics.RecordChainFinished(s.String(), steps, elapsed)
	c.doneOnce.Do(func() { close(c.done) })
}
