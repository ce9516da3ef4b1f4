package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/status-im/proxy-chain/logging"
)

// Result is what the client read from the upstream
type Result struct {
	Response *http.Response // Body already drained into Body
	Body     []byte
	Duration time.Duration
	Attempts int
}

// StatusError is returned for a non-2xx upstream response
type StatusError struct {
	StatusCode int
	Body       []byte
	RetryAfter string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return fmt.Sprintf("rate limit exceeded (status %d), retry after %s: %s", e.StatusCode, e.RetryAfter, string(e.Body))
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, string(e.Body))
}

// Client wraps an http.Client with retries, backoff and per-request rate limiting
type Client struct {
	Client        *http.Client
	Opts          RetryOptions
	statusHandler StatusHandler
	// rateLimiter returns a rate limiter for the request, or nil
	rateLimiter func(*http.Request) *rate.Limiter
	logger      logging.Logger
}

// Option is a functional option for configuring Client
type Option func(*Client)

// WithStatusHandler sets the per-attempt status handler
func WithStatusHandler(handler StatusHandler) Option {
	return func(c *Client) {
		c.statusHandler = handler
	}
}

// WithRateLimiter sets the limiter lookup used before every attempt
func WithRateLimiter(limiter func(*http.Request) *rate.Limiter) Option {
	return func(c *Client) {
		c.rateLimiter = limiter
	}
}

// WithLogger sets the logger for Client
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.Client.Transport = rt
	}
}

// New creates a new HTTP Client with retry capabilities
func New(opts RetryOptions, options ...Option) *Client {
	opts.ApplyDefaults()

	c := &Client{
		Client: &http.Client{
			Timeout: opts.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.ConnectionTimeout,
				}).DialContext,
			},
		},
		Opts:          opts,
		statusHandler: noopStatusHandler{},
		logger:        logging.NoopLogger{},
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Do executes req with retry logic. The returned Result is non-nil whenever an
// upstream response was read, including when err is a *StatusError.
func (c *Client) Do(req *http.Request) (*Result, error) {
	ctx := req.Context()
	var lastErr error
	var lastResult *Result

	for attempt := 0; attempt < c.Opts.MaxRetries; attempt++ {
		if attempt > 0 {
			c.statusHandler.OnRetry()

			backoff := CalculateBackoffWithJitter(c.Opts.BaseBackoff, attempt)
			c.logger.Debug("Retrying request",
				"prefix", c.Opts.LogPrefix,
				"attempt", attempt,
				"max_retries", c.Opts.MaxRetries-1,
				"backoff", backoff,
				"error", lastErr)

			if err := sleepContext(ctx, backoff); err != nil {
				c.statusHandler.OnRequest("cancelled")
				return lastResult, err
			}

			retryReq, err := rewind(req)
			if err != nil {
				return lastResult, err
			}
			req = retryReq
		}

		if c.rateLimiter != nil {
			if limiter := c.rateLimiter(req); limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					c.statusHandler.OnRequest("error")
					return lastResult, fmt.Errorf("rate limiter wait failed: %w", err)
				}
			}
		}

		start := time.Now()
		resp, err := c.Client.Do(req)
		duration := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				c.statusHandler.OnRequest("cancelled")
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed after %.2fs: %w", duration.Seconds(), err)
			c.statusHandler.OnRequest("error")
			continue
		}

		result, err := readResult(resp, duration, attempt+1)
		if err == nil {
			c.statusHandler.OnRequest("success")
			return result, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && isRetryableError(statusErr.StatusCode) {
			lastErr, lastResult = err, result
			c.statusHandler.OnRequest("rate_limited")
			c.logger.Warn("Retryable upstream status",
				"prefix", c.Opts.LogPrefix,
				"status", statusErr.StatusCode,
				"retry_after", statusErr.RetryAfter)
			continue
		}

		c.statusHandler.OnRequest("error")
		return result, err
	}

	return lastResult, fmt.Errorf("all %d attempts failed, last error: %w", c.Opts.MaxRetries, lastErr)
}

// readResult drains and closes the body
func readResult(resp *http.Response, duration time.Duration, attempts int) (*Result, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	resp.Body = http.NoBody
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	result := &Result{Response: resp, Body: body, Duration: duration, Attempts: attempts}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	return result, nil
}

// rewind clones req with a fresh body for another attempt
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed for retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// isRetryableError determines if a given HTTP status code should trigger a retry
func isRetryableError(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

// IsCancelled reports whether err came from a cancelled or expired context
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
