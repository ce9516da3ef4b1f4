// Package request defines the contract a single network call exposes to the
// code that orchestrates it, plus an HTTP implementation of that contract.
package request

import "net/http"

//go:generate mockgen -package=mock -source=request.go -destination=mock/request.go

// SuccessFunc is called once a request finished successfully. source is the
// request reporting the outcome; a chain reports itself rather than its step.
type SuccessFunc func(body string, data []byte, resp *http.Response, source Request)

// ErrorFunc is called once a request failed
type ErrorFunc func(err error, body string, data []byte, resp *http.Response, source Request)

// Request is one asynchronous network call
type Request interface {
	// ID identifies the request in a Registry
	ID() string
	// Execute starts the request and reports whether it was started.
	// The outcome arrives later through the completion handlers, possibly
	// before Execute returns.
	Execute() bool
	// Cancel stops the request. Cancelling a finished request is a no-op.
	Cancel()
	// Completion installs the completion handlers and returns the request
	Completion(success SuccessFunc, failure ErrorFunc) Request
	// SuccessHandler returns the installed success handler, or nil
	SuccessHandler() SuccessFunc
	// ErrorHandler returns the installed error handler, or nil
	ErrorHandler() ErrorFunc
}

// Registry tracks requests that are currently running
type Registry interface {
	Register(r Request)
	Unregister(r Request)
}

// EmptyResponse is the placeholder response reported by requests that have no
// upstream response of their own.
func EmptyResponse() *http.Response {
	return &http.Response{
		Header: make(http.Header),
		Body:   http.NoBody,
	}
}
