package api

// Handler reacts to a single named event. It receives the payload that was
// submitted with the event (nil when none was given) and returns the
// transition the engine should apply. A nil Transition means the state stays
// where it is.
type Handler func(payload any) (Transition, error)

// EventLaunch is synthesized by the engine and dispatched to a state right
// after its entry hook has run. A state that does not wait for an external
// trigger handles it to transition onward immediately; a state without a
// launch handler in its own table ignores it. Launch never bubbles to a
// parent.
const EventLaunch = "launch"

// StateSpec describes a state before construction. Handlers is the closed
// dispatch table for the state: events are matched by exact name, there is
// no reflective lookup. All hooks are optional.
type StateSpec struct {
	// Name identifies the state in logs, traces and errors.
	Name string

	// Final marks a terminal state. Once a final state is active the engine
	// rejects any further event with ErrFinalState.
	Final bool

	// Parent turns the state into a substate. The parent must be the
	// engine's active state at the moment the substate is returned inside an
	// EnterSub transition.
	Parent *State

	// Handlers maps event names to reactions.
	Handlers map[string]Handler

	// OnEntry runs once when the state becomes active, before the launch
	// event is dispatched.
	OnEntry func()

	// BeforeExit runs once when the state is destroyed, either by a Goto
	// transition or by returning to its parent.
	BeforeExit func()

	// OnPreemption runs on a parent when it yields control to a substate.
	// The parent is paused, not destroyed; BeforeExit is not called.
	OnPreemption func()

	// OnResume runs on a parent when its substate returns. It receives the
	// substate's return payload. The hook cannot request a transition;
	// any follow-up must arrive as a separately dispatched event.
	OnResume func(payload any)

	// ReturnPayload produces the value handed to the parent's OnResume when
	// this substate returns. It is called before BeforeExit so cleanup code
	// never constructs the result.
	ReturnPayload func() any
}

// State is a single unit of behavior in a machine: a named dispatch table
// plus lifecycle hooks. States are single-use: a fresh instance is built for
// every transition, entered once, exited once, then discarded.
//
// A State with a non-nil parent is a substate. Substates bubble events they
// do not handle to their parent, recursively.
type State struct {
	name   string
	final  bool
	parent *State

	handlers map[string]Handler

	onEntry       func()
	beforeExit    func()
	onPreemption  func()
	onResume      func(payload any)
	returnPayload func() any

	entered   bool
	activeSub *State
}

// NewState builds a State from a spec. It panics on an empty name or a nil
// handler, which are programmer errors, never runtime conditions.
func NewState(spec StateSpec) *State {
	if spec.Name == "" {
		panic("hfsm: state name must not be empty")
	}

	handlers := make(map[string]Handler, len(spec.Handlers))
	for event, h := range spec.Handlers {
		if event == "" {
			panic("hfsm: event name must not be empty")
		}
		if h == nil {
			panic("hfsm: state " + spec.Name + " has nil handler for event " + event)
		}
		handlers[event] = h
	}

	return &State{
		name:          spec.Name,
		final:         spec.Final,
		parent:        spec.Parent,
		handlers:      handlers,
		onEntry:       spec.OnEntry,
		beforeExit:    spec.BeforeExit,
		onPreemption:  spec.OnPreemption,
		onResume:      spec.OnResume,
		returnPayload: spec.ReturnPayload,
	}
}

// Name returns the state's diagnostic name.
func (s *State) Name() string { return s.name }

// Final reports whether the state is terminal.
func (s *State) Final() bool { return s.final }

// Parent returns the parent state, or nil for a top-level state.
func (s *State) Parent() *State { return s.parent }

// Entered reports whether the state's entry sequence has already run.
// States are single-use, so a true value also means the state can never be
// the target of another transition.
func (s *State) Entered() bool { return s.entered }

// ActiveSubState returns the substate this state last yielded to, or nil.
// This is bookkeeping only; the engine's own pointer is authoritative.
func (s *State) ActiveSubState() *State { return s.activeSub }

// Handles reports whether the state's own table has a handler for event.
// It does not consult the parent chain.
func (s *State) Handles(event string) bool {
	_, ok := s.handlers[event]
	return ok
}

// React dispatches a named event to the state. A missing handler on a
// substate bubbles to the parent, recursively, until an ancestor handles it
// or the root reports *UnhandledEventError.
func (s *State) React(name string, payload any) (Transition, error) {
	h, ok := s.handlers[name]
	if !ok {
		if s.parent != nil {
			return s.parent.React(name, payload)
		}
		return nil, &UnhandledEventError{State: s.name, Event: name}
	}
	return h(payload)
}

// Enter marks the state entered and runs its entry hook.
// Called by the engine exactly once per state.
func (s *State) Enter() {
	s.entered = true
	if s.onEntry != nil {
		s.onEntry()
	}
}

// Exit runs the state's teardown hook. Called by the engine exactly once,
// when the state is destroyed.
func (s *State) Exit() {
	s.activeSub = nil
	if s.beforeExit != nil {
		s.beforeExit()
	}
}

// Preempt records sub as the state's active substate and runs the
// preemption hook. The state is paused, not exited.
func (s *State) Preempt(sub *State) {
	s.activeSub = sub
	if s.onPreemption != nil {
		s.onPreemption()
	}
}

// Resume clears the substate bookkeeping and runs the resume hook with the
// returning substate's payload.
func (s *State) Resume(payload any) {
	s.activeSub = nil
	if s.onResume != nil {
		s.onResume(payload)
	}
}

// ReturnPayload produces the value a returning substate hands to its parent.
// It returns nil when no producer was declared.
func (s *State) ReturnPayload() any {
	if s.returnPayload == nil {
		return nil
	}
	return s.returnPayload()
}
