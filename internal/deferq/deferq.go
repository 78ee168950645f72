// Package deferq holds the engine's deferral queue: a FIFO of postponed
// events waiting for the machine to settle.
package deferq

// Entry is a single postponed event.
type Entry struct {
	Name    string
	Payload any
}

// Queue is a FIFO of deferred events. It preserves submission order and
// supports an atomic snapshot-and-clear so that entries pushed during a
// replay pass wait for the next drain instead of extending the current one.
//
// A Queue is owned by exactly one Engine and shares its single-owner
// contract; it is not safe for concurrent use and does not need to be.
type Queue struct {
	entries []Entry
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Push appends an event to the back of the queue.
func (q *Queue) Push(name string, payload any) {
	q.entries = append(q.entries, Entry{Name: name, Payload: payload})
}

// TakeAll removes and returns every queued entry in submission order.
// The queue is empty afterwards; entries pushed while the caller iterates
// the returned slice belong to the next drain.
func (q *Queue) TakeAll() []Entry {
	if len(q.entries) == 0 {
		return nil
	}
	batch := q.entries
	q.entries = nil
	return batch
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return len(q.entries)
}
