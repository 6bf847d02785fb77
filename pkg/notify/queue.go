package notify

import (
	"sync"
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
)

// DefaultLifetime is how long a notification stays visible.
const DefaultLifetime = 3000 * time.Millisecond

// Entry is a visible notification.
type Entry struct {
	ID uint64
	Event
	CreatedAt time.Time
}

// Observer receives queue lifecycle callbacks. Either func may be nil.
type Observer struct {
	OnEnqueue func(Entry)
	OnRemove  func(e Entry, expired bool)
}

// Queue is the set of currently visible notifications. Every entry owns an
// independent eviction timer; removing one entry never touches another.
type Queue struct {
	clock    clock.Clock
	lifetime time.Duration
	observer Observer

	mu      sync.Mutex
	nextID  uint64
	entries []Entry
	timers  map[uint64]clock.Timer
	closed  bool
}

// NewQueue returns an empty queue. A nil clock uses clock.Real; a
// non-positive lifetime uses DefaultLifetime.
func NewQueue(clk clock.Clock, lifetime time.Duration) *Queue {
	if clk == nil {
		clk = clock.Real{}
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Queue{
		clock:    clk,
		lifetime: lifetime,
		timers:   make(map[uint64]clock.Timer),
	}
}

// SetObserver installs lifecycle callbacks. Callbacks run without the
// queue lock held.
func (q *Queue) SetObserver(o Observer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observer = o
}

// Lifetime returns the per-entry visibility duration.
func (q *Queue) Lifetime() time.Duration { return q.lifetime }

// Publish enqueues e, so a Queue can be handed to a Bus subscription or
// used directly as a Publisher.
func (q *Queue) Publish(e Event) { q.Enqueue(e) }

// Enqueue appends e to the visible set and schedules its eviction after
// the queue lifetime. It returns the new entry's id, or 0 once the queue
// is closed.
func (q *Queue) Enqueue(e Event) uint64 {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	q.nextID++
	id := q.nextID
	entry := Entry{ID: id, Event: e, CreatedAt: q.clock.Now()}
	q.entries = append(q.entries, entry)
	q.timers[id] = q.clock.AfterFunc(q.lifetime, func() { q.remove(id, true) })
	onEnqueue := q.observer.OnEnqueue
	q.mu.Unlock()

	if onEnqueue != nil {
		onEnqueue(entry)
	}
	return id
}

// Dismiss removes the entry early and cancels its timer. It reports
// whether the entry was still visible.
func (q *Queue) Dismiss(id uint64) bool {
	return q.remove(id, false)
}

// remove deletes id if present. Removing an absent id is a no-op.
func (q *Queue) remove(id uint64, expired bool) bool {
	q.mu.Lock()
	idx := -1
	for i, e := range q.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	entry := q.entries[idx]
	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
	if t, ok := q.timers[id]; ok {
		if !expired {
			t.Stop()
		}
		delete(q.timers, id)
	}
	onRemove := q.observer.OnRemove
	q.mu.Unlock()

	if onRemove != nil {
		onRemove(entry, expired)
	}
	return true
}

// Visible returns the current entries in insertion order.
func (q *Queue) Visible() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of visible entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close cancels every pending eviction and clears the queue. Later
// Enqueue calls are ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.entries = nil
}
