package chain

import (
	"errors"
	"net/http"
	"sync"

	"github.com/status-im/proxy-chain/request"
)

// journal records the order in which fake requests were executed
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(id string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, id)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// fakeRequest completes when the test says so, or inside Execute when
// immediate is set
type fakeRequest struct {
	id      string
	journal *journal

	mu        sync.Mutex
	success   request.SuccessFunc
	failure   request.ErrorFunc
	executed  int
	cancelled int
	refuse    bool
	immediate bool
	err       error
}

func newFake(id string, j *journal) *fakeRequest {
	return &fakeRequest{id: id, journal: j}
}

// immediateFake completes inside Execute, failing with err when it is set
func immediateFake(id string, j *journal, err error) *fakeRequest {
	f := newFake(id, j)
	f.immediate = true
	f.err = err
	return f
}

func (f *fakeRequest) ID() string { return f.id }

func (f *fakeRequest) Execute() bool {
	f.mu.Lock()
	f.executed++
	refuse, immediate, err := f.refuse, f.immediate, f.err
	f.mu.Unlock()

	f.journal.add(f.id)
	if refuse {
		return false
	}
	if immediate {
		if err != nil {
			f.Fail(err)
		} else {
			f.Succeed(f.id)
		}
	}
	return true
}

func (f *fakeRequest) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

func (f *fakeRequest) Completion(success request.SuccessFunc, failure request.ErrorFunc) request.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.success, f.failure = success, failure
	return f
}

func (f *fakeRequest) SuccessHandler() request.SuccessFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.success
}

func (f *fakeRequest) ErrorHandler() request.ErrorFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

func (f *fakeRequest) Succeed(body string) {
	if h := f.SuccessHandler(); h != nil {
		h(body, []byte(body), &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}, f)
	}
}

func (f *fakeRequest) Fail(err error) {
	if err == nil {
		err = errors.New(f.id + " failed")
	}
	if h := f.ErrorHandler(); h != nil {
		h(err, "", nil, &http.Response{StatusCode: http.StatusInternalServerError, Header: http.Header{}}, f)
	}
}

func (f *fakeRequest) Executed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executed
}

func (f *fakeRequest) Cancelled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// outcomes counts the handler invocations seen by a chain or step
type outcomes struct {
	mu        sync.Mutex
	successes int
	failures  int
	errs      []error
	bodies    []string
	data      [][]byte
	resps     []*http.Response
	sources   []request.Request
}

func (o *outcomes) success(body string, data []byte, resp *http.Response, source request.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.successes++
	o.bodies = append(o.bodies, body)
	o.data = append(o.data, data)
	o.resps = append(o.resps, resp)
	o.sources = append(o.sources, source)
}

func (o *outcomes) failure(err error, body string, data []byte, resp *http.Response, source request.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
	o.errs = append(o.errs, err)
	o.bodies = append(o.bodies, body)
	o.data = append(o.data, data)
	o.resps = append(o.resps, resp)
	o.sources = append(o.sources, source)
}

func (o *outcomes) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.successes, o.failures
}
