// Package hfsm is a hierarchical finite-state-machine runtime.
//
// A machine is a chain of active states: one top-level state plus any
// substates it has yielded to. Events are dispatched to the innermost
// active state; events it does not handle bubble up the parent chain, and
// an event no ancestor handles is reported as *UnhandledEventError.
//
// Handlers react to events by returning a Transition:
//
//   - nil keeps the machine where it is
//   - Goto destroys the whole active chain and enters a fresh top-level state
//   - EnterSub pauses the active state and enters one of its substates
//   - ReturnToParent destroys the active substate and resumes its parent,
//     handing it an optional return payload
//   - Defer postpones the triggering event until the machine settles
//
// States are single-use. Build a fresh State (via NewState / NewSubState or
// an api.StateSpec) for every entry; the engine rejects transitions into a
// state that was already entered.
//
// Right after a state's entry hook runs, the engine dispatches the
// synthetic EventLaunch to that state only. States that should move on
// immediately handle it; states that wait for external input simply omit a
// launch handler.
//
// Deferred events accumulate in submission order and are replayed when the
// machine settles: after a state entry completes and after a substate
// returns. Each drain replays one snapshot of the queue, so events
// deferred again during replay wait for the next drain.
//
// An Engine is synchronous and single-owner: HandleEvent runs the whole
// reaction, transition and replay on the caller's stack, and calling
// HandleEvent from inside a handler fails with ErrReentrantEvent. To feed
// one machine from many goroutines, wrap the engine in a Driver, which
// serializes events through a channel onto a dedicated loop goroutine.
//
// Observability is pluggable: an Observer receives lifecycle callbacks
// (LoggingObserver, BasicMetrics and the otelobs subpackage implement it),
// and a Journal keeps an append-only trace of machine activity in memory
// or SQLite.
package hfsm
