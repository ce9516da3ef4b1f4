package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyChain is returned when a chain without steps is executed
	ErrEmptyChain = errors.New("chain has no requests")
	// ErrAlreadyStarted is returned when a chain that left the idle state is executed again
	ErrAlreadyStarted = errors.New("chain already started")
	// ErrDispatchRejected is reported for a step whose Execute returned false
	ErrDispatchRejected = errors.New("request refused to start")
)

// StepError is the error handed to a chain's terminal error handler
type StepError struct {
	Index     int
	RequestID string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.RequestID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
