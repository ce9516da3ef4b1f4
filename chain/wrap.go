package chain

import (
	"net/http"

	"github.com/status-im/proxy-chain/request"
)

type handlers struct {
	success request.SuccessFunc
	failure request.ErrorFunc
}

// wrapHandlers builds the handlers installed on a step in place of pass. Each
// one first asks accept whether the outcome still counts, then calls the
// matching pass-through handler with source as the reporter, then hands the
// outcome to next. A refused outcome reaches neither.
func wrapHandlers(pass handlers, source request.Request, accept func() bool,
	next func(outcome Outcome, err error, body string, data []byte, resp *http.Response)) handlers {
	return handlers{
		success: func(body string, data []byte, resp *http.Response, _ request.Request) {
			if !accept() {
				return
			}
			if pass.success != nil {
				pass.success(body, data, resp, source)
			}
			next(OutcomeSuccess, nil, body, data, resp)
		},
		failure: func(err error, body string, data []byte, resp *http.Response, _ request.Request) {
			if !accept() {
				return
			}
			if pass.failure != nil {
				pass.failure(err, body, data, resp, source)
			}
			next(OutcomeFailure, err, body, data, resp)
		},
	}
}
