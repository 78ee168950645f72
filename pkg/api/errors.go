package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is returned by HandleEvent before Start has run.
	ErrNotStarted = errors.New("hfsm: engine not started")

	// ErrAlreadyStarted is returned by Start on a started engine.
	ErrAlreadyStarted = errors.New("hfsm: engine already started")

	// ErrFinalState is returned when an event is submitted while the active
	// leaf is final, and by Start when the initial state is final.
	ErrFinalState = errors.New("hfsm: final state reached")

	// ErrReentrantEvent is returned when HandleEvent is called from inside a
	// handler's own call stack. Handlers act by returning a Transition, not
	// by submitting further events.
	ErrReentrantEvent = errors.New("hfsm: reentrant event dispatch")

	// ErrReturnWithoutParent is returned when a handler produces
	// ReturnToParent while the active state has no parent.
	ErrReturnWithoutParent = errors.New("hfsm: return-to-parent from a state with no parent")
)

// UnhandledEventError reports an event for which neither the active state
// nor any ancestor declared a handler. The engine routes it through the
// unhandled-event policy; the default policy hands it back to the caller.
type UnhandledEventError struct {
	State string
	Event string
}

func (e *UnhandledEventError) Error() string {
	return fmt.Sprintf("hfsm: state %q has no handler for event %q", e.State, e.Event)
}

// IsUnhandledEvent unwraps err as an *UnhandledEventError.
func IsUnhandledEvent(err error) (*UnhandledEventError, bool) {
	var u *UnhandledEventError
	if errors.As(err, &u) {
		return u, true
	}
	return nil, false
}

// ImproperReactionError reports a transition whose contents violate the
// engine's contract: a nil target, a reused state, a substate whose parent
// is not the active state. This is a programmer bug and is never downgraded
// outside deferral replay.
type ImproperReactionError struct {
	State  string
	Event  string
	Reason string
}

func (e *ImproperReactionError) Error() string {
	return fmt.Sprintf("hfsm: improper reaction from state %q to event %q: %s", e.State, e.Event, e.Reason)
}
