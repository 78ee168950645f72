package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Callbacks fire synchronously on the engine's single call stack, so
// implementations should be fast; heavy work should be done asynchronously
// so as not to delay dispatch.
type Observer interface {
	// OnStateEntered is called after a state's entry hook has run.
	OnStateEntered(state string)

	// OnStateExited is called after a state's exit hook has run, for both
	// chain exits and substate returns.
	OnStateExited(state string)

	// OnStatePreempted is called when a parent yields control to a substate.
	OnStatePreempted(parent, substate string)

	// OnStateResumed is called when a parent regains control from a
	// returning substate.
	OnStateResumed(parent string)

	// OnEventDispatched is called before the active state reacts to an
	// event, including the synthetic launch event and deferral replays.
	OnEventDispatched(state, event string)

	// OnEventSettled is called once the event is fully processed: the
	// reaction has returned and its transition, if any, has been applied.
	// It fires for both successes and failures (err != nil), and settles
	// in reverse dispatch order when entry sequences nest dispatches.
	OnEventSettled(state, event string, err error, duration time.Duration)

	// OnEventDeferred is called when a reaction postpones its own event.
	OnEventDeferred(state, event string)

	// OnReplayFailure is called when replaying a deferred event fails and
	// the engine swallows the error to keep draining.
	OnReplayFailure(event string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnStateEntered(state string)                                        {}
func (NoopObserver) OnStateExited(state string)                                         {}
func (NoopObserver) OnStatePreempted(parent, substate string)                           {}
func (NoopObserver) OnStateResumed(parent string)                                       {}
func (NoopObserver) OnEventDispatched(state, event string)                              {}
func (NoopObserver) OnEventSettled(state, event string, err error, d time.Duration)     {}
func (NoopObserver) OnEventDeferred(state, event string)                                {}
func (NoopObserver) OnReplayFailure(event string, err error)                            {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnStateEntered(state string) {
	for _, o := range c.observers {
		o.OnStateEntered(state)
	}
}

func (c *CompositeObserver) OnStateExited(state string) {
	for _, o := range c.observers {
		o.OnStateExited(state)
	}
}

func (c *CompositeObserver) OnStatePreempted(parent, substate string) {
	for _, o := range c.observers {
		o.OnStatePreempted(parent, substate)
	}
}

func (c *CompositeObserver) OnStateResumed(parent string) {
	for _, o := range c.observers {
		o.OnStateResumed(parent)
	}
}

func (c *CompositeObserver) OnEventDispatched(state, event string) {
	for _, o := range c.observers {
		o.OnEventDispatched(state, event)
	}
}

func (c *CompositeObserver) OnEventSettled(state, event string, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnEventSettled(state, event, err, d)
	}
}

func (c *CompositeObserver) OnEventDeferred(state, event string) {
	for _, o := range c.observers {
		o.OnEventDeferred(state, event)
	}
}

func (c *CompositeObserver) OnReplayFailure(event string, err error) {
	for _, o := range c.observers {
		o.OnReplayFailure(event, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs machine lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnStateEntered(state string) {
	o.Logger.Info("state_entered", slog.String("state", state))
}

func (o *LoggingObserver) OnStateExited(state string) {
	o.Logger.Debug("state_exited", slog.String("state", state))
}

func (o *LoggingObserver) OnStatePreempted(parent, substate string) {
	o.Logger.Debug("state_preempted",
		slog.String("parent", parent),
		slog.String("substate", substate),
	)
}

func (o *LoggingObserver) OnStateResumed(parent string) {
	o.Logger.Debug("state_resumed", slog.String("parent", parent))
}

func (o *LoggingObserver) OnEventDispatched(state, event string) {
	o.Logger.Debug("event_dispatched",
		slog.String("state", state),
		slog.String("event", event),
	)
}

func (o *LoggingObserver) OnEventSettled(state, event string, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(context.Background(), level, "event_settled",
		slog.String("state", state),
		slog.String("event", event),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnEventDeferred(state, event string) {
	o.Logger.Debug("event_deferred",
		slog.String("state", state),
		slog.String("event", event),
	)
}

func (o *LoggingObserver) OnReplayFailure(event string, err error) {
	o.Logger.Warn("replay_failed",
		slog.String("event", event),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate dispatch durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	statesEntered    atomic.Int64
	eventsDispatched atomic.Int64
	eventsDeferred   atomic.Int64
	replayFailures   atomic.Int64

	eventsSettled atomic.Int64
	totalDispatch atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	StatesEntered    int64
	EventsDispatched int64
	EventsDeferred   int64
	ReplayFailures   int64

	EventsSettled       int64
	AvgDispatchDuration time.Duration
}

func (m *BasicMetrics) OnStateEntered(state string) {
	m.statesEntered.Add(1)
}

func (m *BasicMetrics) OnEventDispatched(state, event string) {
	m.eventsDispatched.Add(1)
}

func (m *BasicMetrics) OnEventSettled(state, event string, err error, d time.Duration) {
	// Only count successful dispatches for average duration.
	if err == nil {
		m.eventsSettled.Add(1)
		m.totalDispatch.Add(d.Nanoseconds())
	}
}

func (m *BasicMetrics) OnEventDeferred(state, event string) {
	m.eventsDeferred.Add(1)
}

func (m *BasicMetrics) OnReplayFailure(event string, err error) {
	m.replayFailures.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	settled := m.eventsSettled.Load()
	totalNs := m.totalDispatch.Load()

	var avg time.Duration
	if settled > 0 {
		avg = time.Duration(totalNs / settled)
	}

	return BasicMetricsSnapshot{
		StatesEntered:       m.statesEntered.Load(),
		EventsDispatched:    m.eventsDispatched.Load(),
		EventsDeferred:      m.eventsDeferred.Load(),
		ReplayFailures:      m.replayFailures.Load(),
		EventsSettled:       settled,
		AvgDispatchDuration: avg,
	}
}
