package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueSize is the capacity used when QueueConfig.MaxSize is zero.
const DefaultQueueSize = 50

// QueueConfig configures an EventQueue.
type QueueConfig struct {
	// MaxSize is the capacity bound. Defaults to DefaultQueueSize.
	MaxSize int

	// OnOverflow is invoked at most once per Enqueue or Reconfigure call
	// with the entries evicted to respect MaxSize, oldest first. Optional.
	OnOverflow func(dropped []Call)
}

// EventQueue is a bounded, ordered holding area for calls that cannot be
// delivered yet. Overflow is not an error: the oldest entries are evicted
// to make room and reported through OnOverflow. Enqueue never fails loudly.
//
// EventQueue is safe for concurrent use.
type EventQueue struct {
	mu         sync.Mutex
	entries    []Call
	maxSize    int
	paused     bool
	onOverflow func([]Call)
}

// QueueState is a point-in-time diagnostic view of an EventQueue.
type QueueState struct {
	Size           int
	Paused         bool
	OldestEventAge time.Duration
}

// NewEventQueue creates an EventQueue with the given configuration.
func NewEventQueue(cfg QueueConfig) *EventQueue {
	size := cfg.MaxSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &EventQueue{
		maxSize:    size,
		onOverflow: cfg.OnOverflow,
	}
}

// Enqueue appends a call and returns its assigned ID. If the queue is
// paused the call is dropped and ok is false, with no overflow side
// effect. If capacity would be exceeded, the minimum number of oldest
// entries is evicted first and reported via OnOverflow.
func (q *EventQueue) Enqueue(call Call) (id string, ok bool) {
	q.mu.Lock()
	if q.paused {
		q.mu.Unlock()
		return "", false
	}
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	if call.Timestamp == 0 {
		call.Timestamp = nowMillis()
	}

	var dropped []Call
	if excess := len(q.entries) - q.maxSize + 1; excess > 0 {
		dropped = append(dropped, q.entries[:excess]...)
		q.entries = append(q.entries[:0], q.entries[excess:]...)
	}
	q.entries = append(q.entries, call)
	overflow := q.onOverflow
	q.mu.Unlock()

	if overflow != nil && len(dropped) > 0 {
		overflow(dropped)
	}
	return call.ID, true
}

// Flush atomically removes and returns all entries in insertion order.
func (q *EventQueue) Flush() []Call {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.entries
	q.entries = nil
	return out
}

// Remove removes and returns all entries matching pred, preserving the
// relative order of both the removed entries and the remainder.
func (q *EventQueue) Remove(pred func(Call) bool) []Call {
	q.mu.Lock()
	defer q.mu.Unlock()

	var removed []Call
	kept := q.entries[:0]
	for _, e := range q.entries {
		if pred(e) {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return removed
}

// Pause makes subsequent Enqueue calls drop their input. Existing
// contents are unaffected.
func (q *EventQueue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume re-enables Enqueue.
func (q *EventQueue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
}

// Reconfigure applies a new capacity. Shrinking below the current length
// evicts the oldest excess entries and reports them via OnOverflow.
func (q *EventQueue) Reconfigure(maxSize int) {
	if maxSize <= 0 {
		return
	}
	q.mu.Lock()
	q.maxSize = maxSize
	var dropped []Call
	if excess := len(q.entries) - maxSize; excess > 0 {
		dropped = append(dropped, q.entries[:excess]...)
		q.entries = append(q.entries[:0], q.entries[excess:]...)
	}
	overflow := q.onOverflow
	q.mu.Unlock()

	if overflow != nil && len(dropped) > 0 {
		overflow(dropped)
	}
}

// State returns a snapshot of queue diagnostics.
func (q *EventQueue) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := QueueState{Size: len(q.entries), Paused: q.paused}
	if len(q.entries) > 0 {
		s.OldestEventAge = time.Duration(nowMillis()-q.entries[0].Timestamp) * time.Millisecond
	}
	return s
}

// Len returns the current number of queued entries.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
