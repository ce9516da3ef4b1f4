package chain

// State is the lifecycle position of a compound request
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Outcome is how a single step finished
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// Action is what the chain does after a step finished
type Action int

const (
	// ActionDispatch runs the step at the returned cursor
	ActionDispatch Action = iota
	// ActionComplete ends the chain successfully
	ActionComplete
	// ActionFail ends the chain with the step's error
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionDispatch:
		return "dispatch"
	case ActionComplete:
		return "complete"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Advance computes the cursor and action that follow the step at cursor
// finishing with outcome in a chain of length steps. A failure halts the
// chain unless ignoreErrors is set, in which case it counts as done.
func Advance(cursor, length int, outcome Outcome, ignoreErrors bool) (int, Action) {
	if outcome == OutcomeFailure && !ignoreErrors {
		return cursor, ActionFail
	}

	next := cursor + 1
	if next >= length {
		return length, ActionComplete
	}
	return next, ActionDispatch
}
