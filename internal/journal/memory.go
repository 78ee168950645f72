package journal

import (
	"sync"

	"github.com/ykoski/hfsm/pkg/api"
)

// Memory is an in-process api.Journal backed by a slice.
// It is safe for concurrent use so that tests and dashboards can read the
// trace while the engine's owner goroutine appends to it.
type Memory struct {
	mu     sync.Mutex
	events []api.TraceEvent
}

var _ api.Journal = (*Memory)(nil)

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(ev api.TraceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) List(engineID string) ([]api.TraceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]api.TraceEvent, 0, len(m.events))
	for _, ev := range m.events {
		if engineID != "" && ev.EngineID != engineID {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
