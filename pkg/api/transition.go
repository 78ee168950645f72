package api

// Transition is the value a Handler returns to select the engine's next
// action. It is a closed sum: the only implementations are Goto, EnterSub,
// ReturnToParent and Defer, plus nil for "stay". Handlers cannot produce
// anything outside the sum, so most improper reactions are impossible by
// construction; the engine still validates the contents of each variant and
// reports *ImproperReactionError for, say, a Goto carrying a nil or
// already-used state.
type Transition interface {
	isTransition()
}

// Goto destroys the whole active chain (leaf first) and makes Next the new
// top-level active state. Next must be a fresh, never-entered state with no
// parent.
type Goto struct {
	Next *State
}

// EnterSub pauses the active state and makes Sub the new active leaf.
// Sub's parent must be the state being preempted.
type EnterSub struct {
	Sub *State
}

// ReturnToParent completes the active substate: its return payload is
// computed, it is exited, and its parent becomes active again and receives
// the payload through OnResume. Only legal while a substate is active.
type ReturnToParent struct{}

// Defer postpones the event that produced it. The engine queues the
// (event, payload) pair and replays it, in submission order, at the next
// deferral drain.
type Defer struct{}

func (Goto) isTransition()           {}
func (EnterSub) isTransition()       {}
func (ReturnToParent) isTransition() {}
func (Defer) isTransition()          {}
