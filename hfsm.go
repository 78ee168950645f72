package hfsm

import (
	"database/sql"
	"log/slog"

	"github.com/ykoski/hfsm/internal/engine"
	"github.com/ykoski/hfsm/internal/journal"
	"github.com/ykoski/hfsm/pkg/api"
)

// Core types re-exported from pkg/api so that most programs only import
// the root package.
type (
	// Engine runs one hierarchical state machine.
	Engine = api.Engine

	// State is a single unit of behavior: a dispatch table plus hooks.
	State = api.State

	// StateSpec describes a State before construction.
	StateSpec = api.StateSpec

	// Handler reacts to one named event.
	Handler = api.Handler

	// Transition is the result of a reaction. The concrete variants are
	// Goto, EnterSub, ReturnToParent and Defer; nil means stay.
	Transition = api.Transition

	// Goto destroys the active chain and enters a fresh top-level state.
	Goto = api.Goto

	// EnterSub pauses the active state and enters one of its substates.
	EnterSub = api.EnterSub

	// ReturnToParent destroys the active substate and resumes its parent.
	ReturnToParent = api.ReturnToParent

	// Defer postpones the triggering event until the machine settles.
	Defer = api.Defer

	// Observer receives engine lifecycle callbacks.
	Observer = api.Observer

	// NoopObserver ignores all callbacks.
	NoopObserver = api.NoopObserver

	// LoggingObserver logs callbacks through log/slog.
	LoggingObserver = api.LoggingObserver

	// BasicMetrics counts dispatches, deferrals and replay failures.
	BasicMetrics = api.BasicMetrics

	// BasicMetricsSnapshot is an immutable view of BasicMetrics.
	BasicMetricsSnapshot = api.BasicMetricsSnapshot

	// Journal is an append-only store of machine trace events.
	Journal = api.Journal

	// TraceEvent is one journaled record of machine activity.
	TraceEvent = api.TraceEvent

	// TraceEventType names the kind of a TraceEvent.
	TraceEventType = api.TraceEventType

	// UnhandledEventError reports an event no state on the chain handled.
	UnhandledEventError = api.UnhandledEventError

	// ImproperReactionError reports a handler returning a transition the
	// engine cannot apply.
	ImproperReactionError = api.ImproperReactionError
)

// EventLaunch is the synthetic event dispatched right after a state's
// entry hook runs.
const EventLaunch = api.EventLaunch

// Trace event types written by the engine.
const (
	TraceStateEntered   = api.TraceStateEntered
	TraceStateExited    = api.TraceStateExited
	TraceStatePreempted = api.TraceStatePreempted
	TraceStateResumed   = api.TraceStateResumed
	TraceEventDeferred  = api.TraceEventDeferred
	TraceReplayFailed   = api.TraceReplayFailed
)

// Sentinel errors returned by Engine operations.
var (
	ErrNotStarted          = api.ErrNotStarted
	ErrAlreadyStarted      = api.ErrAlreadyStarted
	ErrFinalState          = api.ErrFinalState
	ErrReentrantEvent      = api.ErrReentrantEvent
	ErrReturnWithoutParent = api.ErrReturnWithoutParent
)

// IsUnhandledEvent reports whether err is (or wraps) an
// *UnhandledEventError and returns it.
func IsUnhandledEvent(err error) (*UnhandledEventError, bool) {
	return api.IsUnhandledEvent(err)
}

// NewCompositeObserver combines observers into one; nil entries are skipped.
func NewCompositeObserver(obs ...Observer) Observer {
	return api.NewCompositeObserver(obs...)
}

// NewLoggingObserver returns an Observer that logs through logger, or
// slog.Default() when logger is nil.
func NewLoggingObserver(logger *slog.Logger) Observer {
	return api.NewLoggingObserver(logger)
}

// Option configures an Engine created by New.
type Option func(*engineOptions)

type engineOptions struct {
	logger      *slog.Logger
	observers   []api.Observer
	journal     api.Journal
	onUnhandled func(*api.UnhandledEventError) error
}

// WithLogger sets the engine's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithObserver attaches an observer. The option can be given multiple
// times; all observers receive every callback.
func WithObserver(obs Observer) Option {
	return func(o *engineOptions) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithJournal records every trace event in j.
func WithJournal(j Journal) Option {
	return func(o *engineOptions) {
		o.journal = j
	}
}

// WithUnhandledPolicy overrides what HandleEvent does when no state on the
// active chain handles an event. Returning nil consumes the event silently.
func WithUnhandledPolicy(fn func(*UnhandledEventError) error) Option {
	return func(o *engineOptions) {
		o.onUnhandled = fn
	}
}

// IgnoreUnhandled makes the engine drop unhandled events instead of
// returning *UnhandledEventError from HandleEvent.
func IgnoreUnhandled() Option {
	return WithUnhandledPolicy(func(*UnhandledEventError) error { return nil })
}

// New creates an Engine whose initial state is built by the given factory
// when Start runs. The returned Engine is not safe for concurrent use;
// wrap it in a Driver to feed it from multiple goroutines.
func New(initial func() *State, opts ...Option) Engine {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	var observer api.Observer
	if len(o.observers) > 0 {
		observer = api.NewCompositeObserver(o.observers...)
	}

	return engine.New(engine.Config{
		Initial:     initial,
		Logger:      o.logger,
		Observer:    observer,
		Journal:     o.journal,
		OnUnhandled: o.onUnhandled,
	})
}

// NewMemoryJournal returns an in-process Journal suitable for tests and
// short-lived machines.
func NewMemoryJournal() Journal {
	return journal.NewMemory()
}

// NewSQLiteJournal returns a Journal persisted in the given SQLite
// database, creating its schema if needed. The caller owns db and must
// import a SQLite driver such as modernc.org/sqlite.
func NewSQLiteJournal(db *sql.DB) (Journal, error) {
	return journal.NewSQLite(db)
}
