// Package engine implements the hfsm dispatch core: one active state chain,
// one deferral queue, strict entry/exit ordering, and fault-isolated replay
// of deferred events.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ykoski/hfsm/internal/deferq"
	"github.com/ykoski/hfsm/internal/journal"
	"github.com/ykoski/hfsm/pkg/api"
)

// Config describes how to construct an Engine.
// Only used inside this package; external callers go through the hfsm
// facade constructors.
type Config struct {
	// Initial builds the first state when Start runs. Required.
	Initial func() *api.State

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Observer defaults to api.NoopObserver.
	Observer api.Observer

	// Journal defaults to a discarding store.
	Journal api.Journal

	// OnUnhandled decides what happens when an event reaches the engine
	// with no handler anywhere on the active chain. The default returns the
	// error to the caller of HandleEvent; returning nil treats the event as
	// consumed.
	OnUnhandled func(*api.UnhandledEventError) error
}

// Engine is the synchronous, single-owner machine runtime. Every
// HandleEvent call runs to completion before returning, nested transitions
// and deferral replay included. Nothing here is safe for concurrent use;
// the contract is one logical thread of control per Engine.
type Engine struct {
	id string

	initial     func() *api.State
	logger      *slog.Logger
	observer    api.Observer
	journal     api.Journal
	onUnhandled func(*api.UnhandledEventError) error

	active   *api.State
	started  bool
	busy     bool
	deferred *deferq.Queue
}

var _ api.Engine = (*Engine)(nil)

// New creates an Engine from cfg, filling in defaults for every optional
// field.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	j := cfg.Journal
	if j == nil {
		j = journal.Noop{}
	}
	policy := cfg.OnUnhandled
	if policy == nil {
		policy = func(err *api.UnhandledEventError) error { return err }
	}

	return &Engine{
		id:          ulid.Make().String(),
		initial:     cfg.Initial,
		logger:      logger,
		observer:    obs,
		journal:     j,
		onUnhandled: policy,
		deferred:    deferq.New(),
	}
}

// ID returns the engine's instance ID.
func (e *Engine) ID() string { return e.id }

// Started reports whether Start has completed successfully.
func (e *Engine) Started() bool { return e.started }

// Active returns the current leaf state, or nil before Start.
func (e *Engine) Active() *api.State { return e.active }

// Start runs the full entry sequence on the initial state.
func (e *Engine) Start() error {
	if e.started {
		return api.ErrAlreadyStarted
	}
	if e.initial == nil {
		return errors.New("hfsm: initial state factory is required")
	}

	st := e.initial()
	if st == nil {
		return errors.New("hfsm: initial state factory returned nil")
	}
	if st.Parent() != nil {
		return fmt.Errorf("hfsm: initial state %q must be a top-level state", st.Name())
	}
	if st.Final() {
		return fmt.Errorf("initial state %q: %w", st.Name(), api.ErrFinalState)
	}

	e.started = true
	return e.enter(st)
}

// HandleEvent dispatches one event to the active leaf, applies the
// resulting transition and, on success, drains the deferral queue before
// returning.
func (e *Engine) HandleEvent(name string, payload any) error {
	if err := e.submit(name, payload); err != nil {
		return err
	}
	e.drain()
	return nil
}

// submit runs the readiness guards and the dispatch itself. It is the
// shared path for external events and deferral replay; replay skips the
// terminal drain that HandleEvent adds, so events deferred during a replay
// pass wait for the drain owned by whichever entry sequence produced them.
func (e *Engine) submit(name string, payload any) error {
	if !e.started {
		return api.ErrNotStarted
	}
	if e.active.Final() {
		return fmt.Errorf("state %q: %w", e.active.Name(), api.ErrFinalState)
	}
	if e.busy {
		return api.ErrReentrantEvent
	}
	return e.dispatch(name, payload)
}

// dispatch runs the active leaf's reaction under the reentrancy guard and
// applies whatever transition comes back. The busy flag covers only the
// reaction itself: hooks and nested entry sequences run with busy false.
func (e *Engine) dispatch(name string, payload any) error {
	st := e.active

	e.observer.OnEventDispatched(st.Name(), name)
	started := time.Now()

	e.busy = true
	tr, err := st.React(name, payload)
	e.busy = false

	if err == nil {
		err = e.apply(st, name, payload, tr)
	} else if unhandled, ok := api.IsUnhandledEvent(err); ok {
		err = e.onUnhandled(unhandled)
	}

	e.observer.OnEventSettled(st.Name(), name, err, time.Since(started))
	return err
}

// apply executes exactly one of the five transition rules.
func (e *Engine) apply(from *api.State, name string, payload any, tr api.Transition) error {
	switch t := tr.(type) {
	case nil:
		return nil

	case api.Goto:
		if t.Next == nil {
			return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: "Goto with nil state"}
		}
		if t.Next.Parent() != nil {
			return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: "Goto target must be a top-level state"}
		}
		if t.Next.Entered() {
			return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: "states are single-use; Goto target was already entered"}
		}

		// Destroy the whole active chain, leaf before parent.
		for st := e.active; st != nil; st = st.Parent() {
			e.exit(st)
		}
		return e.enter(t.Next)

	case api.EnterSub:
		sub := t.Sub
		if sub == nil {
			return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: "EnterSub with nil substate"}
		}
		if sub.Parent() == nil {
			return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: "EnterSub target must declare a parent"}
		}
		if sub.Parent() != e.active {
			return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: fmt.Sprintf("substate parent %q is not the active state %q", sub.Parent().Name(), e.active.Name())}
		}
		if sub.Entered() {
			return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: "states are single-use; EnterSub target was already entered"}
		}

		cur := e.active
		cur.Preempt(sub)
		e.observer.OnStatePreempted(cur.Name(), sub.Name())
		e.record(api.TraceStatePreempted, cur.Name(), "", sub.Name())
		return e.enter(sub)

	case api.ReturnToParent:
		cur := e.active
		parent := cur.Parent()
		if parent == nil {
			return fmt.Errorf("state %q: %w", cur.Name(), api.ErrReturnWithoutParent)
		}

		// The result is produced before teardown so cleanup code never
		// constructs it.
		result := cur.ReturnPayload()
		e.exit(cur)

		e.active = parent
		parent.Resume(result)
		e.observer.OnStateResumed(parent.Name())
		e.record(api.TraceStateResumed, parent.Name(), "", "")

		e.drain()
		return nil

	case api.Defer:
		e.deferred.Push(name, payload)
		e.observer.OnEventDeferred(from.Name(), name)
		e.record(api.TraceEventDeferred, from.Name(), name, "")
		return nil

	default:
		return &api.ImproperReactionError{State: from.Name(), Event: name, Reason: fmt.Sprintf("unrecognized transition %T", tr)}
	}
}

// enter runs the entry sequence: mark entered and fire the entry hook,
// dispatch the synthetic launch event, then drain the deferral queue.
func (e *Engine) enter(st *api.State) error {
	e.active = st
	st.Enter()

	e.logger.Info("entered state", "engine", e.id, "state", st.Name())
	e.observer.OnStateEntered(st.Name())
	e.record(api.TraceStateEntered, st.Name(), "", "")

	// Launch is looked up in the entered state's own table only; a state
	// without a launch handler simply waits for an external trigger.
	if !st.Final() && st.Handles(api.EventLaunch) {
		if err := e.dispatch(api.EventLaunch, nil); err != nil {
			return err
		}
	}

	e.drain()
	return nil
}

func (e *Engine) exit(st *api.State) {
	st.Exit()
	e.observer.OnStateExited(st.Name())
	e.record(api.TraceStateExited, st.Name(), "", "")
}

// drain replays one snapshot of the deferral queue through the normal
// dispatch path. Replay is fault-isolated: a failing entry is logged and
// the drain continues with the next one. Replay of one entry can trigger a
// nested entry sequence whose own drain completes before this loop moves
// on, so draining is recursive-to-completion per entry, not a flat pass.
func (e *Engine) drain() {
	for _, entry := range e.deferred.TakeAll() {
		if err := e.submit(entry.Name, entry.Payload); err != nil {
			e.logger.Warn("deferred event replay failed",
				"engine", e.id,
				"event", entry.Name,
				"error", err,
			)
			e.observer.OnReplayFailure(entry.Name, err)
			e.record(api.TraceReplayFailed, e.active.Name(), entry.Name, err.Error())
		}
	}
}

// record appends a trace event, downgrading journal failures to a warning:
// a broken audit trail must not break dispatch.
func (e *Engine) record(typ api.TraceEventType, state, event, detail string) {
	ev := api.TraceEvent{
		ID:       ulid.Make().String(),
		EngineID: e.id,
		At:       time.Now(),
		Type:     typ,
		State:    state,
		Event:    event,
		Detail:   detail,
	}
	if err := e.journal.Append(ev); err != nil {
		e.logger.Warn("journal append failed", "engine", e.id, "type", string(typ), "error", err)
	}
}
