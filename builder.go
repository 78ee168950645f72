package hfsm

import "github.com/ykoski/hfsm/pkg/api"

// StateBuilder assembles a StateSpec with a fluent interface. Construction
// mistakes (empty names, nil handlers) panic, since they are programmer
// errors that no caller can meaningfully recover from.
type StateBuilder struct {
	spec api.StateSpec
}

// NewState starts building a top-level state.
func NewState(name string) *StateBuilder {
	if name == "" {
		panic("hfsm: state name must not be empty")
	}
	return &StateBuilder{spec: api.StateSpec{
		Name:     name,
		Handlers: make(map[string]api.Handler),
	}}
}

// NewSubState starts building a substate of parent. The parent must be the
// engine's active state at the moment an EnterSub transition names the
// built state.
func NewSubState(name string, parent *State) *StateBuilder {
	if name == "" {
		panic("hfsm: state name must not be empty")
	}
	if parent == nil {
		panic("hfsm: substate " + name + " requires a parent")
	}
	return &StateBuilder{spec: api.StateSpec{
		Name:     name,
		Parent:   parent,
		Handlers: make(map[string]api.Handler),
	}}
}

// On registers a handler for the named event, replacing any previous
// handler for the same name.
func (b *StateBuilder) On(event string, h Handler) *StateBuilder {
	if event == "" {
		panic("hfsm: event name must not be empty")
	}
	if h == nil {
		panic("hfsm: state " + b.spec.Name + " given nil handler for event " + event)
	}
	b.spec.Handlers[event] = h
	return b
}

// OnLaunch registers a handler for the synthetic launch event dispatched
// right after entry.
func (b *StateBuilder) OnLaunch(h Handler) *StateBuilder {
	return b.On(api.EventLaunch, h)
}

// OnEntry sets the hook that runs when the state becomes active, before
// the launch event.
func (b *StateBuilder) OnEntry(fn func()) *StateBuilder {
	b.spec.OnEntry = fn
	return b
}

// BeforeExit sets the hook that runs when the state is destroyed.
func (b *StateBuilder) BeforeExit(fn func()) *StateBuilder {
	b.spec.BeforeExit = fn
	return b
}

// OnPreemption sets the hook that runs when this state yields control to a
// substate. The state is paused, not destroyed.
func (b *StateBuilder) OnPreemption(fn func()) *StateBuilder {
	b.spec.OnPreemption = fn
	return b
}

// OnResume sets the hook that runs when a substate returns control to this
// state. It receives the substate's return payload.
func (b *StateBuilder) OnResume(fn func(payload any)) *StateBuilder {
	b.spec.OnResume = fn
	return b
}

// ReturnPayload sets the producer of the value handed to the parent's
// OnResume when this substate returns.
func (b *StateBuilder) ReturnPayload(fn func() any) *StateBuilder {
	b.spec.ReturnPayload = fn
	return b
}

// Final marks the state terminal. Once active, the engine rejects all
// further events with ErrFinalState.
func (b *StateBuilder) Final() *StateBuilder {
	b.spec.Final = true
	return b
}

// Build constructs the State. Each built State is single-use: enter it
// once through a transition, then build a fresh one for the next visit.
func (b *StateBuilder) Build() *State {
	return api.NewState(b.spec)
}
