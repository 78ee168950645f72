package api

// Engine is the high-level machine API. An Engine owns one active state
// chain, one deferral queue, and the started/busy flags; all interaction
// with one Engine must come from a single logical thread of control.
type Engine interface {
	// Start runs the full entry sequence on the initial state.
	// It fails if the engine is already started or the initial state is
	// final.
	Start() error

	// HandleEvent dispatches a named event to the active leaf state and
	// applies the resulting transition before returning, including a full
	// drain of the deferral queue. Calling it from inside a handler returns
	// ErrReentrantEvent.
	HandleEvent(name string, payload any) error

	// Active returns the current leaf state, or nil before Start.
	Active() *State

	// Started reports whether Start has completed successfully.
	Started() bool

	// ID returns the engine's unique instance ID, used to key journal
	// records.
	ID() string
}
