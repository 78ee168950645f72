package api

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// recordingObserver captures callback names in order.
type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) OnStateEntered(state string)      { r.calls = append(r.calls, "entered:"+state) }
func (r *recordingObserver) OnStateExited(state string)       { r.calls = append(r.calls, "exited:"+state) }
func (r *recordingObserver) OnStatePreempted(p, s string)     { r.calls = append(r.calls, "preempted:"+p+"/"+s) }
func (r *recordingObserver) OnStateResumed(p string)          { r.calls = append(r.calls, "resumed:"+p) }
func (r *recordingObserver) OnEventDispatched(st, ev string)  { r.calls = append(r.calls, "dispatched:"+ev) }
func (r *recordingObserver) OnEventSettled(st, ev string, err error, d time.Duration) {
	r.calls = append(r.calls, "settled:"+ev)
}
func (r *recordingObserver) OnEventDeferred(st, ev string)    { r.calls = append(r.calls, "deferred:"+ev) }
func (r *recordingObserver) OnReplayFailure(ev string, err error) {
	r.calls = append(r.calls, "replayfail:"+ev)
}

func TestNewCompositeObserverFiltersNil(t *testing.T) {
	if _, ok := NewCompositeObserver(nil, nil).(NoopObserver); !ok {
		t.Fatal("all-nil composite should collapse to NoopObserver")
	}

	single := &recordingObserver{}
	if got := NewCompositeObserver(nil, single); got != Observer(single) {
		t.Fatal("single observer should be returned unwrapped")
	}
}

func TestCompositeObserverFansOut(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	c := NewCompositeObserver(a, b)

	c.OnStateEntered("idle")
	c.OnEventDispatched("idle", "tick")
	c.OnEventSettled("idle", "tick", nil, time.Millisecond)
	c.OnEventDeferred("idle", "later")
	c.OnStatePreempted("idle", "busy")
	c.OnStateResumed("idle")
	c.OnStateExited("idle")
	c.OnReplayFailure("later", errors.New("boom"))

	if len(a.calls) != 8 {
		t.Fatalf("first observer saw %d calls, want 8", len(a.calls))
	}
	for i := range a.calls {
		if a.calls[i] != b.calls[i] {
			t.Fatalf("observers diverged at %d: %q vs %q", i, a.calls[i], b.calls[i])
		}
	}
}

func TestLoggingObserverDoesNotPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := NewLoggingObserver(logger)

	o.OnStateEntered("idle")
	o.OnStateExited("idle")
	o.OnStatePreempted("idle", "busy")
	o.OnStateResumed("idle")
	o.OnEventDispatched("idle", "tick")
	o.OnEventSettled("idle", "tick", nil, time.Millisecond)
	o.OnEventSettled("idle", "tick", errors.New("boom"), time.Millisecond)
	o.OnEventDeferred("idle", "later")
	o.OnReplayFailure("later", errors.New("boom"))
}

func TestBasicMetricsSnapshot(t *testing.T) {
	var m BasicMetrics

	m.OnStateEntered("a")
	m.OnStateEntered("b")
	m.OnEventDispatched("a", "tick")
	m.OnEventSettled("a", "tick", nil, 10*time.Millisecond)
	m.OnEventDispatched("a", "tock")
	m.OnEventSettled("a", "tock", nil, 30*time.Millisecond)
	m.OnEventDispatched("a", "bad")
	m.OnEventSettled("a", "bad", errors.New("boom"), time.Hour)
	m.OnEventDeferred("a", "later")
	m.OnReplayFailure("later", errors.New("boom"))

	snap := m.Snapshot()
	if snap.StatesEntered != 2 {
		t.Fatalf("StatesEntered = %d", snap.StatesEntered)
	}
	if snap.EventsDispatched != 3 {
		t.Fatalf("EventsDispatched = %d", snap.EventsDispatched)
	}
	if snap.EventsSettled != 2 {
		t.Fatalf("EventsSettled = %d, failures must not count", snap.EventsSettled)
	}
	if snap.AvgDispatchDuration != 20*time.Millisecond {
		t.Fatalf("AvgDispatchDuration = %v", snap.AvgDispatchDuration)
	}
	if snap.EventsDeferred != 1 {
		t.Fatalf("EventsDeferred = %d", snap.EventsDeferred)
	}
	if snap.ReplayFailures != 1 {
		t.Fatalf("ReplayFailures = %d", snap.ReplayFailures)
	}
}

func TestBasicMetricsEmptySnapshot(t *testing.T) {
	var m BasicMetrics
	snap := m.Snapshot()
	if snap.AvgDispatchDuration != 0 {
		t.Fatalf("AvgDispatchDuration = %v for empty metrics", snap.AvgDispatchDuration)
	}
}
