package chain

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	chainmock "github.com/status-im/proxy-chain/chain/mock"
	"github.com/status-im/proxy-chain/request"
	"github.com/status-im/proxy-chain/request/mock"
)

func waitDone(t *testing.T, c *ChainedRequest) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("chain did not finish")
	}
}

func assertNotDone(t *testing.T, c *ChainedRequest) {
	t.Helper()
	select {
	case <-c.Done():
		t.Fatal("chain finished early")
	default:
	}
}

func TestChainedRequest_AllSucceed(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)
	j := &journal{}
	a, b, cc := newFake("A", j), newFake("B", j), newFake("C", j)

	steps := map[*fakeRequest]*outcomes{a: {}, b: {}, cc: {}}
	for f, o := range steps {
		f.Completion(o.success, o.failure)
	}

	c := New(WithRegistry(registry))
	c.Add(a).Then(b).Then(cc)
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	gomock.InOrder(
		registry.EXPECT().Register(c),
		registry.EXPECT().Unregister(c),
	)

	require.True(t, c.Execute())
	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, []string{"A"}, j.list())

	a.Succeed("a")
	assert.Equal(t, []string{"A", "B"}, j.list())
	assert.Equal(t, 1, c.Cursor())

	b.Succeed("b")
	assertNotDone(t, c)
	cc.Succeed("c")
	waitDone(t, c)

	assert.Equal(t, []string{"A", "B", "C"}, j.list())
	for f, o := range steps {
		assert.Equal(t, 1, f.Executed(), f.id)
		require.Equal(t, 1, o.successes, f.id)
		assert.Same(t, c, o.sources[0], "pass-through reports the chain")
		assert.Equal(t, bodyOf(f.id), o.bodies[0])
	}

	require.Equal(t, 1, terminal.successes)
	assert.Zero(t, terminal.failures)
	assert.Equal(t, "", terminal.bodies[0])
	assert.Equal(t, []byte{}, terminal.data[0])
	assert.Equal(t, 0, terminal.resps[0].StatusCode)
	assert.Equal(t, http.NoBody, terminal.resps[0].Body)
	assert.Same(t, c, terminal.sources[0])

	assert.Equal(t, StateCompleted, c.State())
	assert.Equal(t, 3, c.Cursor())
	assert.Equal(t, 3, c.Len(), "requests are kept after completion")
}

func bodyOf(id string) string {
	switch id {
	case "A":
		return "a"
	case "B":
		return "b"
	default:
		return "c"
	}
}

func TestChainedRequest_StepFailureEndsChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)
	j := &journal{}
	a, b := newFake("A", j), newFake("B", j)
	never := newFake("never", j)

	bPass := &outcomes{}
	b.Completion(bPass.success, bPass.failure)

	c := New(WithRegistry(registry)).Add(a).Add(b).Add(never)
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	gomock.InOrder(
		registry.EXPECT().Register(c),
		registry.EXPECT().Unregister(c).Times(1),
	)

	require.True(t, c.Execute())
	a.Succeed("a")

	boom := errors.New("boom")
	b.Fail(boom)
	waitDone(t, c)

	assert.Equal(t, []string{"A", "B"}, j.list())
	assert.Zero(t, never.Executed())

	require.Equal(t, 1, bPass.failures)
	assert.Same(t, boom, bPass.errs[0], "pass-through sees the step error")
	assert.Same(t, c, bPass.sources[0])

	require.Equal(t, 1, terminal.failures)
	assert.Zero(t, terminal.successes)
	var stepErr *StepError
	require.ErrorAs(t, terminal.errs[0], &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "B", stepErr.RequestID)
	assert.ErrorIs(t, terminal.errs[0], boom)
	assert.Equal(t, http.StatusInternalServerError, terminal.resps[0].StatusCode)
	assert.Same(t, c, terminal.sources[0])

	assert.Equal(t, StateFailed, c.State())
	assert.Zero(t, c.Len(), "requests are discarded after failure")
	assert.Empty(t, c.Requests())

	// late outcomes from the failed step are dropped
	b.Fail(boom)
	b.Succeed("late")
	assert.Equal(t, 1, bPass.failures)
	assert.Zero(t, bPass.successes)
	assert.Equal(t, 1, terminal.failures)
}

func TestChainedRequest_IgnoreErrors(t *testing.T) {
	j := &journal{}
	a, b, cc := newFake("A", j), newFake("B", j), newFake("C", j)

	bPass := &outcomes{}
	b.Completion(bPass.success, bPass.failure)

	c := New(WithIgnoreErrors(true)).Add(a).Add(b).Add(cc)
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)
	assert.True(t, c.IgnoreErrors())

	require.True(t, c.Execute())
	a.Fail(nil)
	b.Fail(errors.New("b broke"))
	cc.Succeed("c")
	waitDone(t, c)

	assert.Equal(t, []string{"A", "B", "C"}, j.list())
	assert.Equal(t, 1, bPass.failures, "ignored failures still reach the pass-through handler")
	assert.EqualError(t, bPass.errs[0], "b broke")

	s, f := terminal.counts()
	assert.Equal(t, 1, s)
	assert.Zero(t, f)
	assert.Equal(t, StateCompleted, c.State())
}

func TestChainedRequest_IgnoreErrorsLastStepFails(t *testing.T) {
	a, b := newFake("A", nil), newFake("B", nil)
	c := New().Add(a).Add(b)
	c.SetIgnoreErrors(true)
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	require.True(t, c.Execute())
	a.Succeed("a")
	b.Fail(nil)
	waitDone(t, c)

	s, f := terminal.counts()
	assert.Equal(t, 1, s)
	assert.Zero(t, f)
}

func TestChainedRequest_CancelWhilePending(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)
	j := &journal{}
	a, b, cc := newFake("A", j), newFake("B", j), newFake("C", j)

	bPass := &outcomes{}
	b.Completion(bPass.success, bPass.failure)

	c := New(WithRegistry(registry)).Add(a).Add(b).Add(cc)
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	gomock.InOrder(
		registry.EXPECT().Register(c),
		registry.EXPECT().Unregister(c).Times(1),
	)

	require.True(t, c.Execute())
	a.Succeed("a")

	c.Cancel()
	waitDone(t, c)

	for _, f := range []*fakeRequest{a, b, cc} {
		assert.Equal(t, 1, f.Cancelled(), f.id)
	}
	assert.Equal(t, StateCancelled, c.State())

	// the in-flight step reports after cancellation
	b.Succeed("b")
	b.Fail(nil)

	assert.Zero(t, cc.Executed())
	s, f := terminal.counts()
	assert.Zero(t, s)
	assert.Zero(t, f)
	ps, pf := bPass.counts()
	assert.Zero(t, ps)
	assert.Zero(t, pf)
	assert.Equal(t, 3, c.Len(), "requests are kept after cancellation")

	// cancelling again reaches the requests but changes nothing else
	c.Cancel()
	assert.Equal(t, 2, a.Cancelled())
	assert.Equal(t, StateCancelled, c.State())
}

func TestChainedRequest_CancelBeforeExecute(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)
	a := newFake("A", nil)

	c := New(WithRegistry(registry)).Add(a)
	c.Cancel()
	waitDone(t, c)

	assert.Equal(t, StateCancelled, c.State())
	assert.Equal(t, 1, a.Cancelled())
	assert.False(t, c.Execute())
	assert.Zero(t, a.Executed())
}

func TestChainedRequest_CancelAfterCompletion(t *testing.T) {
	a := newFake("A", nil)
	c := New().Add(a)
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	require.True(t, c.Execute())
	a.Succeed("a")
	waitDone(t, c)

	c.Cancel()

	assert.Equal(t, StateCompleted, c.State())
	assert.Equal(t, 1, a.Cancelled(), "finished requests are still cancelled")
	s, _ := terminal.counts()
	assert.Equal(t, 1, s)
}

func TestChainedRequest_ExecuteIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)
	a, b := newFake("A", nil), newFake("B", nil)

	c := New(WithRegistry(registry)).Add(a).Add(b)
	registry.EXPECT().Register(c).Times(1)
	registry.EXPECT().Unregister(c).Times(1)

	require.True(t, c.Execute())
	assert.False(t, c.Execute())
	assert.ErrorIs(t, c.Validate(), ErrAlreadyStarted)
	assert.Equal(t, 1, a.Executed())

	a.Succeed("a")
	b.Succeed("b")
	waitDone(t, c)

	assert.False(t, c.Execute())
	assert.Equal(t, 1, a.Executed())
	assert.Equal(t, 1, b.Executed())
}

func TestChainedRequest_EmptyChainIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)

	c := New(WithRegistry(registry))
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	assert.ErrorIs(t, c.Validate(), ErrEmptyChain)
	assert.False(t, c.Execute())
	assert.Equal(t, StateIdle, c.State())

	s, f := terminal.counts()
	assert.Zero(t, s)
	assert.Zero(t, f)
	assertNotDone(t, c)

	c.Add(nil)
	assert.Zero(t, c.Len())
}

func TestChainedRequest_AddAfterExecuteIsIgnored(t *testing.T) {
	a, late := newFake("A", nil), newFake("late", nil)
	c := New().Add(a)

	require.True(t, c.Execute())
	c.Add(late)
	assert.Equal(t, 1, c.Len())

	a.Succeed("a")
	waitDone(t, c)
	assert.Zero(t, late.Executed())
}

func TestChainedRequest_SynchronousCompletions(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl) // a chain finished inside Execute never registers

	const n = 10000
	c := New(WithRegistry(registry))
	for i := 0; i < n; i++ {
		c.Add(immediateFake(fmt.Sprintf("r%d", i), nil, nil))
	}
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	require.True(t, c.Execute())

	waitDone(t, c)
	s, f := terminal.counts()
	assert.Equal(t, 1, s)
	assert.Zero(t, f)
	assert.Equal(t, n, c.Cursor())
	for _, r := range c.Requests() {
		assert.Equal(t, 1, r.(*fakeRequest).Executed())
	}
}

func TestChainedRequest_SynchronousFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)
	j := &journal{}

	boom := errors.New("boom")
	c := New(WithRegistry(registry)).
		Add(immediateFake("A", j, nil)).
		Add(immediateFake("B", j, boom)).
		Add(immediateFake("C", j, nil))
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	require.True(t, c.Execute())

	assert.Equal(t, []string{"A", "B"}, j.list())
	s, f := terminal.counts()
	assert.Zero(t, s)
	assert.Equal(t, 1, f)
	assert.ErrorIs(t, terminal.errs[0], boom)
	assert.Equal(t, StateFailed, c.State())
}

func TestChainedRequest_MixedSynchronousAndAsync(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mock.NewMockRegistry(ctrl)
	j := &journal{}
	async := newFake("B", j)

	c := New(WithRegistry(registry)).
		Add(immediateFake("A", j, nil)).
		Add(async).
		Add(immediateFake("C", j, nil))
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	gomock.InOrder(
		registry.EXPECT().Register(c),
		registry.EXPECT().Unregister(c),
	)

	require.True(t, c.Execute())
	assert.Equal(t, []string{"A", "B"}, j.list())

	async.Succeed("b")
	waitDone(t, c)

	assert.Equal(t, []string{"A", "B", "C"}, j.list())
	s, _ := terminal.counts()
	assert.Equal(t, 1, s)
}

func TestChainedRequest_DispatchRejected(t *testing.T) {
	t.Run("ends the chain", func(t *testing.T) {
		a := newFake("A", nil)
		a.refuse = true
		b := newFake("B", nil)
		aPass := &outcomes{}
		a.Completion(aPass.success, aPass.failure)

		c := New().Add(a).Add(b)
		terminal := &outcomes{}
		c.Completion(terminal.success, terminal.failure)

		require.True(t, c.Execute())
		waitDone(t, c)

		assert.Zero(t, b.Executed())
		require.Equal(t, 1, terminal.failures)
		assert.ErrorIs(t, terminal.errs[0], ErrDispatchRejected)
		assert.Equal(t, 1, aPass.failures)
		assert.Equal(t, StateFailed, c.State())
	})

	t.Run("is skipped when errors are ignored", func(t *testing.T) {
		a := newFake("A", nil)
		a.refuse = true
		b := immediateFake("B", nil, nil)

		c := New(WithIgnoreErrors(true)).Add(a).Add(b)
		terminal := &outcomes{}
		c.Completion(terminal.success, terminal.failure)

		require.True(t, c.Execute())
		waitDone(t, c)

		assert.Equal(t, 1, b.Executed())
		s, f := terminal.counts()
		assert.Equal(t, 1, s)
		assert.Zero(t, f)
	})
}

func TestChainedRequest_DuplicateCompletionIsDropped(t *testing.T) {
	j := &journal{}
	a, b := newFake("A", j), newFake("B", j)
	aPass := &outcomes{}
	a.Completion(aPass.success, aPass.failure)

	c := New().Add(a).Add(b)
	require.True(t, c.Execute())

	a.Succeed("a")
	a.Succeed("a")
	a.Fail(nil)

	assert.Equal(t, 1, b.Executed())
	s, f := aPass.counts()
	assert.Equal(t, 1, s)
	assert.Zero(t, f)
	assert.Equal(t, []string{"A", "B"}, j.list())
}

func TestChainedRequest_Nested(t *testing.T) {
	j := &journal{}
	x, y := newFake("X", j), newFake("Y", j)
	inner := New().Add(x).Add(y)
	innerPass := &outcomes{}
	inner.Completion(innerPass.success, innerPass.failure)

	a, b := newFake("A", j), newFake("B", j)
	outer := New().Add(a).Add(inner).Add(b)
	terminal := &outcomes{}
	outer.Completion(terminal.success, terminal.failure)

	require.True(t, outer.Execute())
	a.Succeed("a")
	x.Succeed("x")
	y.Succeed("y")
	waitDone(t, inner)
	b.Succeed("b")
	waitDone(t, outer)

	assert.Equal(t, []string{"A", "X", "Y", "B"}, j.list())
	assert.Equal(t, 1, innerPass.successes)
	assert.Same(t, outer, innerPass.sources[0])
	s, _ := terminal.counts()
	assert.Equal(t, 1, s)
}

func TestChainedRequest_NestedCancel(t *testing.T) {
	x := newFake("X", nil)
	inner := New().Add(x)
	outer := New().Add(newFake("A", nil)).Add(inner)

	require.True(t, outer.Execute())
	outer.Cancel()

	assert.Equal(t, StateCancelled, outer.State())
	assert.Equal(t, StateCancelled, inner.State())
	assert.Equal(t, 1, x.Cancelled())
	assert.Zero(t, x.Executed())
}

func TestChainedRequest_WithMockRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	step := mock.NewMockRequest(ctrl)

	var success request.SuccessFunc
	passCalled := false
	var pass request.SuccessFunc = func(body string, data []byte, resp *http.Response, source request.Request) { passCalled = true }

	step.EXPECT().ID().Return("mock-step").AnyTimes()
	step.EXPECT().SuccessHandler().Return(pass)
	step.EXPECT().ErrorHandler().Return(nil)
	step.EXPECT().Completion(gomock.Any(), gomock.Any()).DoAndReturn(
		func(s request.SuccessFunc, _ request.ErrorFunc) request.Request {
			success = s
			return step
		})
	step.EXPECT().Execute().Return(true)

	c := New().Add(step)
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	require.True(t, c.Execute())
	require.NotNil(t, success)
	success("ok", []byte("ok"), &http.Response{StatusCode: http.StatusOK}, step)

	waitDone(t, c)
	assert.True(t, passCalled)
	s, _ := terminal.counts()
	assert.Equal(t, 1, s)
}

func TestChainedRequest_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := chainmock.NewMockMetricsRecorder(ctrl)
	a, b := newFake("A", nil), newFake("B", nil)

	c := New(WithMetrics(metrics), WithIgnoreErrors(true)).Add(a).Add(b)

	gomock.InOrder(
		metrics.EXPECT().RecordChainStarted(),
		metrics.EXPECT().RecordStep("failure"),
		metrics.EXPECT().RecordStep("success"),
		metrics.EXPECT().RecordChainFinished("completed", 2, gomock.Any()),
	)

	require.True(t, c.Execute())
	a.Fail(nil)
	b.Succeed("b")
	waitDone(t, c)
}

func TestChainedRequest_ConcurrentCancelAndCompletion(t *testing.T) {
	for i := 0; i < 200; i++ {
		a := newFake("A", nil)
		c := New().Add(a)
		terminal := &outcomes{}
		c.Completion(terminal.success, terminal.failure)
		require.True(t, c.Execute())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Succeed("a")
		}()
		go func() {
			defer wg.Done()
			c.Cancel()
		}()
		wg.Wait()
		waitDone(t, c)

		s, f := terminal.counts()
		assert.Zero(t, f)
		switch c.State() {
		case StateCompleted:
			assert.Equal(t, 1, s)
		case StateCancelled:
			assert.Zero(t, s)
		default:
			t.Fatalf("unexpected state %s", c.State())
		}
	}
}

func TestChainedRequest_AsyncCompletions(t *testing.T) {
	const n = 50
	c := New()
	fakes := make([]*fakeRequest, n)
	for i := range fakes {
		fakes[i] = newFake(fmt.Sprintf("r%d", i), nil)
		c.Add(fakes[i])
	}
	terminal := &outcomes{}
	c.Completion(terminal.success, terminal.failure)

	require.True(t, c.Execute())

	// complete each step from its own goroutine once it has been dispatched
	go func() {
		for _, f := range fakes {
			for f.Executed() == 0 {
				time.Sleep(time.Millisecond)
			}
			done := make(chan struct{})
			go func(f *fakeRequest) {
				defer close(done)
				f.Succeed(f.id)
			}(f)
			<-done
		}
	}()

	waitDone(t, c)
	s, f := terminal.counts()
	assert.Equal(t, 1, s)
	assert.Zero(t, f)
}

func TestChainedRequest_Accessors(t *testing.T) {
	a := newFake("A", nil)
	c := New().Add(a)

	assert.NotEmpty(t, c.ID())
	assert.NotEqual(t, c.ID(), New().ID())
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, []request.Request{a}, c.Requests())
	assert.Nil(t, c.SuccessHandler())
	assert.Nil(t, c.ErrorHandler())
	assert.False(t, c.IgnoreErrors())

	terminal := &outcomes{}
	assert.Same(t, c, c.Completion(terminal.success, terminal.failure))
	assert.NotNil(t, c.SuccessHandler())
	assert.NotNil(t, c.ErrorHandler())

	reqs := c.Requests()
	reqs[0] = nil
	assert.Equal(t, 1, c.Len())
	assert.NotNil(t, c.Requests()[0], "Requests returns a copy")
}

func TestStepError(t *testing.T) {
	inner := errors.New("timeout")
	err := &StepError{Index: 2, RequestID: "abc", Err: inner}

	assert.Equal(t, "step 2 (abc) failed: timeout", err.Error())
	assert.ErrorIs(t, err, inner)
}
