// Package journal provides append-only stores for machine trace events.
// The engine writes trace records through the api.Journal interface; it
// never reads them back, so none of these stores participate in the
// machine's own state.
package journal

import "github.com/ykoski/hfsm/pkg/api"

// Noop discards all events.
type Noop struct{}

var _ api.Journal = Noop{}

func (Noop) Append(ev api.TraceEvent) error { return nil }

func (Noop) List(engineID string) ([]api.TraceEvent, error) { return nil, nil }
