package chain

import (
	"fmt"
	"net/http"

	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/request"
)

// Ensure ChainedRequest implements request.Request
var _ request.Request = (*ChainedRequest)(nil)

// ChainedRequest executes its requests one at a time in the order they were
// added. The next request is dispatched only after the previous one reported
// its outcome. A failed request ends the chain unless errors are ignored.
type ChainedRequest struct {
	CompoundRequest

	// guarded by CompoundRequest.mu
	sequence []request.Request
	cursor   int
	// settled is set once the step at cursor reported its outcome
	settled bool
	// dispatching is set while a step's Execute is on the stack
	dispatching bool
	// pending is set when a step finished during dispatch
	pending bool
}

// Option is a functional option for configuring ChainedRequest
type Option func(*ChainedRequest)

// WithIgnoreErrors lets the chain continue past failed requests
func WithIgnoreErrors(ignore bool) Option {
	return func(c *ChainedRequest) {
		c.ignoreErrors = ignore
	}
}

// WithRegistry sets the registry the chain announces itself to while running
func WithRegistry(registry request.Registry) Option {
	return func(c *ChainedRequest) {
		c.registry = registry
	}
}

// WithLogger sets the logger for ChainedRequest
func WithLogger(logger logging.Logger) Option {
	return func(c *ChainedRequest) {
		c.logger = logging.OrNoop(logger)
	}
}

// WithMetrics sets the metrics recorder for ChainedRequest
func WithMetrics(metrics MetricsRecorder) Option {
	return func(c *ChainedRequest) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// New creates an empty chain
func New(opts ...Option) *ChainedRequest {
	c := &ChainedRequest{CompoundRequest: newCompoundRequest()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends r to the chain. Requests added after Execute are ignored.
func (c *ChainedRequest) Add(r request.Request) *ChainedRequest {
	if r == nil {
		return c
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		c.logger.Warn("Ignoring request added to a started chain", "chain", c.id, "request", r.ID(), "state", c.state)
		return c
	}
	c.sequence = append(c.sequence, r)
	return c
}

// Then is Add, for call sites that read as a sequence
func (c *ChainedRequest) Then(r request.Request) *ChainedRequest {
	return c.Add(r)
}

// Completion installs the handlers that receive the chain's single outcome
func (c *ChainedRequest) Completion(success request.SuccessFunc, failure request.ErrorFunc) request.Request {
	c.setCompletion(success, failure)
	return c
}

// Len returns the number of requests held by the chain
func (c *ChainedRequest) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sequence)
}

// Cursor returns the index of the step running or about to run
func (c *ChainedRequest) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Requests returns a copy of the chain's requests
func (c *ChainedRequest) Requests() []request.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]request.Request(nil), c.sequence...)
}

// Validate reports whether Execute would start the chain
func (c *ChainedRequest) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.check(len(c.sequence))
}

// Execute starts the chain and reports whether it started. The outcome is
// delivered to the Completion handlers, possibly before Execute returns.
func (c *ChainedRequest) Execute() bool {
	c.mu.Lock()
	n := len(c.sequence)
	if err := c.begin(n); err != nil {
		c.mu.Unlock()
		c.logger.Warn("Chain not started", "chain", c.id, "error", err)
		return false
	}
	c.mu.Unlock()

	c.logger.Debug("Chain started", "chain", c.id, "steps", n)
	c.metrics.RecordChainStarted()

	c.run()
	c.register(c)
	return true
}

// Cancel stops the chain and every request it holds. No Completion handler
// fires afterwards.
func (c *ChainedRequest) Cancel() {
	c.mu.Lock()
	requests := append([]request.Request(nil), c.sequence...)
	steps := c.cursor
	c.mu.Unlock()

	cancelled := c.cancel()

	for _, r := range requests {
		r.Cancel()
	}

	if cancelled {
		c.logger.Info("Chain cancelled", "chain", c.id, "cursor", steps)
		c.finish(c, StateCancelled, steps)
	}
}

// run dispatches steps until one is left in flight or the chain settles.
// Steps that complete inside their own Execute are picked up by the loop
// rather than by nested calls.
func (c *ChainedRequest) run() {
	for {
		c.mu.Lock()
		if c.state != StateRunning {
			c.mu.Unlock()
			return
		}

		if c.cursor >= len(c.sequence) {
			c.settle(StateCompleted)
			success := c.success
			steps := len(c.sequence)
			c.mu.Unlock()

			c.logger.Debug("Chain completed", "chain", c.id, "steps", steps)
			if success != nil {
				success("", []byte{}, request.EmptyResponse(), c)
			}
			c.finish(c, StateCompleted, steps)
			return
		}

		index := c.cursor
		step := c.sequence[index]
		c.settled = false
		c.pending = false
		c.dispatching = true
		c.mu.Unlock()

		handlers := c.wrap(index, step)
		step.Completion(handlers.success, handlers.failure)

		c.logger.Debug("Dispatching step", "chain", c.id, "index", index, "request", step.ID())
		if !step.Execute() {
			handlers.failure(fmt.Errorf("%w: %s", ErrDispatchRejected, step.ID()), "", []byte{}, request.EmptyResponse(), step)
		}

		c.mu.Lock()
		c.dispatching = false
		again := c.pending
		c.pending = false
		c.mu.Unlock()

		if !again {
			return
		}
	}
}

// wrap builds the handlers installed on the step at index
func (c *ChainedRequest) wrap(index int, step request.Request) handlers {
	pass := handlers{success: step.SuccessHandler(), failure: step.ErrorHandler()}
	return wrapHandlers(pass, c,
		func() bool { return c.accept(index) },
		func(outcome Outcome, err error, body string, data []byte, resp *http.Response) {
			c.stepFinished(index, step, outcome, err, body, data, resp)
		})
}

// accept claims the outcome of the step at index. Outcomes of other steps,
// repeated outcomes and outcomes arriving after the chain settled are refused.
func (c *ChainedRequest) accept(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || index != c.cursor || c.settled {
		c.logger.Debug("Dropping stale step outcome", "chain", c.id, "index", index, "state", c.state)
		return false
	}
	c.settled = true
	return true
}

func (c *ChainedRequest) stepFinished(index int, step request.Request, outcome Outcome, err error, body string, data []byte, resp *http.Response) {
	c.metrics.RecordStep(outcome.String())

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}

	next, action := Advance(c.cursor, len(c.sequence), outcome, c.ignoreErrors)
	if action == ActionFail {
		c.settle(StateFailed)
		failure := c.failure
		c.sequence = nil
		c.cursor = 0
		c.mu.Unlock()

		stepErr := &StepError{Index: index, RequestID: step.ID(), Err: err}
		c.logger.Warn("Chain failed", "chain", c.id, "index", index, "request", step.ID(), "error", err)
		if failure != nil {
			failure(stepErr, body, data, resp, c)
		}
		c.finish(c, StateFailed, index+1)
		return
	}

	if outcome == OutcomeFailure {
		c.logger.Info("Ignoring failed step", "chain", c.id, "index", index, "request", step.ID(), "error", err)
	}

	c.cursor = next
	if c.dispatching {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.logger.Debug("Advancing chain", "chain", c.id, "cursor", next, "action", action)
	c.run()
}
