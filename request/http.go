package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/httpclient"
	"github.com/status-im/proxy-chain/jwt"
	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/models"
)

// Ensure HTTPRequest implements Request
var _ Request = (*HTTPRequest)(nil)

// Doer sends an HTTP request; *httpclient.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*httpclient.Result, error)
}

// HTTPRequest is a Request backed by an HTTP round trip
type HTTPRequest struct {
	id       string
	method   string
	url      string
	body     []byte
	header   http.Header
	client   Doer
	cache    cache.Cache
	cacheTTL time.Duration
	signer   *jwt.Signer
	subject  string
	logger   logging.Logger

	mu        sync.Mutex
	success   SuccessFunc
	failure   ErrorFunc
	started   bool
	finished  bool
	cancelled bool
	cancel    context.CancelFunc
	done      chan struct{}
	doneOnce  sync.Once
}

// HTTPOption is a functional option for configuring HTTPRequest
type HTTPOption func(*HTTPRequest)

// WithClient sets the transport used to send the request
func WithClient(client Doer) HTTPOption {
	return func(r *HTTPRequest) {
		r.client = client
	}
}

// WithHeader adds a request header
func WithHeader(key, value string) HTTPOption {
	return func(r *HTTPRequest) {
		r.header.Add(key, value)
	}
}

// WithBody sets the request body and its content type
func WithBody(contentType string, body []byte) HTTPOption {
	return func(r *HTTPRequest) {
		r.body = body
		if contentType != "" {
			r.header.Set("Content-Type", contentType)
		}
	}
}

// WithCache serves GET requests from c when possible and stores successful
// GET responses for ttl. A cache hit completes inside Execute.
func WithCache(c cache.Cache, ttl time.Duration) HTTPOption {
	return func(r *HTTPRequest) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithTokenSigner attaches a freshly signed bearer token for subject
func WithTokenSigner(signer *jwt.Signer, subject string) HTTPOption {
	return func(r *HTTPRequest) {
		r.signer = signer
		r.subject = subject
	}
}

// WithLogger sets the logger for HTTPRequest
func WithLogger(logger logging.Logger) HTTPOption {
	return func(r *HTTPRequest) {
		r.logger = logger
	}
}

// NewHTTPRequest creates a request for method and url
func NewHTTPRequest(method, url string, opts ...HTTPOption) *HTTPRequest {
	r := &HTTPRequest{
		id:     uuid.NewString(),
		method: method,
		url:    url,
		header: make(http.Header),
		logger: logging.NoopLogger{},
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = httpclient.New(httpclient.DefaultRetryOptions())
	}

	return r
}

func (r *HTTPRequest) ID() string {
	return r.id
}

// Method returns the HTTP method
func (r *HTTPRequest) Method() string {
	return r.method
}

// URL returns the target URL
func (r *HTTPRequest) URL() string {
	return r.url
}

// Done is closed once the request finished or was cancelled
func (r *HTTPRequest) Done() <-chan struct{} {
	return r.done
}

func (r *HTTPRequest) Completion(success SuccessFunc, failure ErrorFunc) Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.success = success
	r.failure = failure
	return r
}

func (r *HTTPRequest) SuccessHandler() SuccessFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success
}

func (r *HTTPRequest) ErrorHandler() ErrorFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// Execute sends the request. It returns false when the request was already
// started or cancelled, or could not be built.
func (r *HTTPRequest) Execute() bool {
	r.mu.Lock()
	if r.started || r.cancelled {
		r.mu.Unlock()
		return false
	}
	r.started = true
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	httpReq, err := r.build(ctx)
	if err != nil {
		r.logger.Error("Failed to build request", "id", r.id, "method", r.method, "url", r.url, "error", err)
		r.mu.Lock()
		r.finished = true
		r.mu.Unlock()
		r.release()
		return false
	}

	if cached, ok := r.lookup(); ok {
		r.logger.Debug("Serving request from cache", "id", r.id, "url", r.url)
		r.complete(nil, string(cached.Body), cached.Body, cached.HTTPResponse())
		return true
	}

	go r.run(httpReq)
	return true
}

// Cancel aborts an in-flight request. No handler fires after Cancel returns.
func (r *HTTPRequest) Cancel() {
	r.mu.Lock()
	if r.finished || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	r.mu.Unlock()

	r.logger.Debug("Request cancelled", "id", r.id, "url", r.url)
	r.release()
}

func (r *HTTPRequest) build(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header = r.header.Clone()

	if r.signer != nil {
		token, _, err := r.signer.Sign(r.subject, r.id)
		if err != nil {
			return nil, fmt.Errorf("failed to sign token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

func (r *HTTPRequest) cacheable() bool {
	return r.cache != nil && r.method == http.MethodGet && r.cacheTTL > 0
}

func (r *HTTPRequest) lookup() (*models.CachedResponse, bool) {
	if !r.cacheable() {
		return nil, false
	}
	return r.cache.Get(cache.Key(r.method, r.url))
}

func (r *HTTPRequest) run(httpReq *http.Request) {
	result, err := r.client.Do(httpReq)

	var data []byte
	var resp *http.Response
	if result != nil {
		data = result.Body
		resp = result.Response
	}

	if err != nil {
		if httpclient.IsCancelled(err) {
			r.logger.Debug("Request aborted", "id", r.id, "url", r.url, "error", err)
		} else {
			r.logger.Warn("Request failed", "id", r.id, "method", r.method, "url", r.url, "error", err)
		}
		if resp == nil {
			resp = EmptyResponse()
		}
		r.complete(err, string(data), data, resp)
		return
	}

	if r.cacheable() {
		r.cache.Set(cache.Key(r.method, r.url), models.NewCachedResponse(resp.StatusCode, resp.Header, data, r.cacheTTL))
	}

	r.complete(nil, string(data), data, resp)
}

// complete reports the outcome once, unless the request was cancelled
func (r *HTTPRequest) complete(err error, body string, data []byte, resp *http.Response) {
	r.mu.Lock()
	if r.finished || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.finished = true
	success, failure := r.success, r.failure
	r.mu.Unlock()

	defer r.release()

	if err != nil {
		if failure != nil {
			failure(err, body, data, resp, r)
		}
		return
	}
	if success != nil {
		success(body, data, resp, r)
	}
}

func (r *HTTPRequest) release() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.doneOnce.Do(func() { close(r.done) })
}
