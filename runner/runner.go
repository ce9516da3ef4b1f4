// Package runner turns a configuration into a chain of HTTP requests and
// drives it to a terminal state.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/cache/l1"
	"github.com/status-im/proxy-chain/cache/l2"
	"github.com/status-im/proxy-chain/cache/multi"
	"github.com/status-im/proxy-chain/cache/noop"
	"github.com/status-im/proxy-chain/chain"
	"github.com/status-im/proxy-chain/config"
	"github.com/status-im/proxy-chain/httpclient"
	"github.com/status-im/proxy-chain/jwt"
	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/manager"
	"github.com/status-im/proxy-chain/metrics"
	"github.com/status-im/proxy-chain/ratelimit"
	"github.com/status-im/proxy-chain/request"
)

// StepResult is what one step reported
type StepResult struct {
	Name       string
	URL        string
	StatusCode int
	Bytes      int
	Err        error
}

// Result is the outcome of one run
type Result struct {
	ChainID string
	State   chain.State
	Err     error
	Steps   []StepResult
}

// Runner owns the collaborators shared by the chains it builds
type Runner struct {
	cfg       *config.Config
	logger    logging.Logger
	metrics   *metrics.Metrics
	transport http.RoundTripper

	manager *manager.Manager
	client  *httpclient.Client
	cache   cache.Cache
	signer  *jwt.Signer
	closers []io.Closer
}

type Option func(*Runner)

func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.OrNoop(logger)
	}
}

// WithMetrics records chain, transport and cache activity in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithCache replaces the cache built from the configuration
func WithCache(c cache.Cache) Option {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithTransport sets the round tripper used for upstream requests
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Runner) {
		r.transport = rt
	}
}

// New validates cfg and builds the shared collaborators
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &Runner{
		cfg:    cfg,
		logger: logging.NoopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}

	var (
		cacheMetrics   cache.MetricsRecorder   = cache.NoopMetrics{}
		managerMetrics manager.MetricsRecorder = manager.NoopMetrics{}
	)
	if r.metrics != nil {
		cacheMetrics = r.metrics
		managerMetrics = r.metrics
	}

	r.manager = manager.New(manager.WithLogger(r.logger), manager.WithMetrics(managerMetrics))

	limiter := ratelimit.NewManager(cfg.RateLimit)
	clientOpts := []httpclient.Option{
		httpclient.WithRateLimiter(limiter.LimiterFor),
		httpclient.WithLogger(r.logger),
	}
	if r.metrics != nil {
		clientOpts = append(clientOpts, httpclient.WithStatusHandler(r.metrics))
	}
	if r.transport != nil {
		clientOpts = append(clientOpts, httpclient.WithTransport(r.transport))
	}
	r.client = httpclient.New(cfg.HTTP, clientOpts...)

	if cfg.Auth.JWTSecret != "" {
		signer, err := jwt.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create token signer: %w", err)
		}
		r.signer = signer
	}

	if r.cache == nil {
		c, closers, err := buildCache(&cfg.Cache, r.logger, cacheMetrics)
		if err != nil {
			return nil, err
		}
		r.cache = c
		r.closers = closers
	}

	return r, nil
}

func buildCache(cfg *cache.Config, logger logging.Logger, m cache.MetricsRecorder) (cache.Cache, []io.Closer, error) {
	if !cfg.Enabled() {
		return noop.NewNoOpCache(), nil, nil
	}

	var caches []cache.Cache
	var closers []io.Closer

	if cfg.L1.Enabled {
		bc, err := l1.NewBigCache(&cfg.L1, cfg.TTL, l1.WithLogger(logger), l1.WithMetrics(m))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create L1 cache: %w", err)
		}
		caches = append(caches, bc)
		closers = append(closers, bc)
	}

	if cfg.L2.Enabled {
		client, err := l2.NewRedisKeyDbClient(&cfg.L2, l2.WithClientLogger(logger))
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, fmt.Errorf("failed to create L2 cache: %w", err)
		}
		kc := l2.NewKeyDBCache(&cfg.L2, client, l2.WithLogger(logger), l2.WithMetrics(m))
		caches = append(caches, kc)
		closers = append(closers, kc)
	}

	return multi.NewMultiCache(caches, cfg.Multi.EnablePropagation, multi.WithLogger(logger), multi.WithMetrics(m)), closers, nil
}

// Manager returns the registry running chains are tracked in
func (r *Runner) Manager() *manager.Manager {
	return r.manager
}

// Signer returns the token signer, or nil when no secret is configured
func (r *Runner) Signer() *jwt.Signer {
	return r.signer
}

// recorder collects step outcomes and the chain's terminal error
type recorder struct {
	mu    sync.Mutex
	steps []StepResult
	err   error
}

func (rec *recorder) step(name, url string) (request.SuccessFunc, request.ErrorFunc) {
	add := func(status int, data []byte, err error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.steps = append(rec.steps, StepResult{Name: name, URL: url, StatusCode: status, Bytes: len(data), Err: err})
	}
	return func(body string, data []byte, resp *http.Response, source request.Request) {
			add(statusOf(resp), data, nil)
		}, func(err error, body string, data []byte, resp *http.Response, source request.Request) {
			add(statusOf(resp), data, err)
		}
}

func (rec *recorder) fail(err error, body string, data []byte, resp *http.Response, source request.Request) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.err = err
}

func (rec *recorder) result(c *chain.ChainedRequest) *Result {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return &Result{
		ChainID: c.ID(),
		State:   c.State(),
		Err:     rec.err,
		Steps:   append([]StepResult(nil), rec.steps...),
	}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// Build creates an unstarted chain with one request per configured step
func (r *Runner) Build() (*chain.ChainedRequest, error) {
	c, _, err := r.build()
	return c, err
}

func (r *Runner) build() (*chain.ChainedRequest, *recorder, error) {
	opts := []chain.Option{
		chain.WithIgnoreErrors(r.cfg.Chain.IgnoreErrors),
		chain.WithRegistry(r.manager),
		chain.WithLogger(r.logger),
	}
	if r.metrics != nil {
		opts = append(opts, chain.WithMetrics(r.metrics))
	}

	rec := &recorder{}
	c := chain.New(opts...)
	c.Completion(nil, rec.fail)

	for _, step := range r.cfg.Steps {
		req, err := r.newRequest(step)
		if err != nil {
			return nil, nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
		req.Completion(rec.step(step.Name, step.URL))
		c.Then(req)
	}

	return c, rec, nil
}

func (r *Runner) newRequest(step config.StepConfig) (*request.HTTPRequest, error) {
	opts := []request.HTTPOption{
		request.WithClient(r.client),
		request.WithLogger(r.logger),
	}

	for key, value := range step.Headers {
		opts = append(opts, request.WithHeader(key, value))
	}
	if step.Body != "" {
		opts = append(opts, request.WithBody(step.ContentType, []byte(step.Body)))
	}
	if step.Cache {
		opts = append(opts, request.WithCache(r.cache, r.cfg.Cache.TTL))
	}
	if step.Sign {
		if r.signer == nil {
			return nil, errors.New("signed step without a token signer")
		}
		opts = append(opts, request.WithTokenSigner(r.signer, r.cfg.Auth.Subject))
	}

	return request.NewHTTPRequest(step.Method, step.URL, opts...), nil
}

// Run executes a freshly built chain and waits for its terminal state. The
// chain is cancelled when ctx is done or the configured timeout expires.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	c, rec, err := r.build()
	if err != nil {
		return nil, err
	}

	if r.cfg.Chain.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Chain.Timeout)
		defer cancel()
	}

	r.logger.Info("Running chain", "chain", c.ID(), "steps", c.Len(), "ignore_errors", c.IgnoreErrors())
	if !c.Execute() {
		return nil, fmt.Errorf("chain did not start: %w", c.Validate())
	}

	select {
	case <-c.Done():
	case <-ctx.Done():
		r.logger.Warn("Cancelling chain", "chain", c.ID(), "reason", ctx.Err())
		c.Cancel()
		<-c.Done()
	}

	result := rec.result(c)
	if result.State == chain.StateCancelled && result.Err == nil {
		result.Err = ctx.Err()
	}
	return result, nil
}

// Close releases the caches
func (r *Runner) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
