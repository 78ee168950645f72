package api

import "time"

// TraceEventType identifies a machine history event.
type TraceEventType string

const (
	TraceStateEntered   TraceEventType = "state.entered"
	TraceStateExited    TraceEventType = "state.exited"
	TraceStatePreempted TraceEventType = "state.preempted"
	TraceStateResumed   TraceEventType = "state.resumed"

	TraceEventDeferred TraceEventType = "event.deferred"
	TraceReplayFailed  TraceEventType = "replay.failed"
)

// TraceEvent is a minimal append-only history record for audit/debugging.
// The engine only ever writes these; it never reads them back, so a journal
// is not a persistence mechanism for the machine's own state.
type TraceEvent struct {
	ID       string
	EngineID string
	At       time.Time
	Type     TraceEventType

	// Optional context.
	State string
	Event string

	// Small, human-oriented details (e.g. substate name, error string).
	// Keep this low-volume: do NOT dump payloads here.
	Detail string
}

// Journal is an append-only history store for machine trace events.
type Journal interface {
	Append(ev TraceEvent) error

	// List returns events for the given engine ID in append order.
	// An empty engineID matches all engines.
	List(engineID string) ([]TraceEvent, error)
}
