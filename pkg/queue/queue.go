// Package queue provides a self-draining, strictly single-lane work queue.
//
// A Queue owns the sequencing of its items but not their content: items are
// handed one at a time to a caller-supplied handler, and the handler owns
// pacing by calling Advance once it is finished with the current item. The
// queue never starts the next item before that, so at most one item is ever
// in flight.
//
// Backpressure is cooperative: while the queue is paused, or while the
// admission check returns false, advancement is retried on a poll interval
// without consuming or dropping items. Polling is deliberately unbounded; a
// permanently false admission check polls forever rather than erroring, and
// the optional stall threshold exists to make that visible.
package queue

import (
	"context"
	"sync"
	"time"
)

const (
	defaultPollInterval = 50 * time.Millisecond

	defaultQueueCap     = 16
	compactMinCap       = 64 // don't compact below this capacity
	compactShrinkFactor = 4  // compact when len < cap/4
)

// Option configures a Queue at construction time.
type Option[T any] func(*Queue[T])

// WithAdmission installs a predicate re-evaluated before each advance;
// while it returns false the queue polls instead of dequeuing. A nil check
// means "always admit".
func WithAdmission[T any](check func() bool) Option[T] {
	return func(q *Queue[T]) {
		q.admission = check
	}
}

// WithPollInterval sets the retry interval used while the queue is paused
// or blocked by the admission check. Non-positive values keep the default.
func WithPollInterval[T any](d time.Duration) Option[T] {
	return func(q *Queue[T]) {
		if d > 0 {
			q.pollInterval = d
		}
	}
}

// WithStallThreshold invokes fn once per blockage after the queue has been
// blocked for n consecutive polls. Polling continues regardless; the
// callback is purely observational.
func WithStallThreshold[T any](n int, fn func()) Option[T] {
	return func(q *Queue[T]) {
		q.stallAfter = n
		q.onStalled = fn
	}
}

// WithDrained invokes fn each time the pending sequence transitions to
// empty, including immediately after construction with no items.
func WithDrained[T any](fn func()) Option[T] {
	return func(q *Queue[T]) {
		q.onDrained = fn
	}
}

// Queue drives an ordered sequence of items through a handler, one at a
// time. All methods are safe for concurrent use.
type Queue[T any] struct {
	mu           sync.Mutex
	items        []T
	handler      func(T)
	admission    func() bool
	pollInterval time.Duration
	stallAfter   int
	onStalled    func()
	onDrained    func()

	current      T
	inFlight     bool
	paused       bool
	blockedPolls int

	// idleCh is closed on each idle transition and replaced when
	// draining resumes, so Wait observes the next idle state.
	idleCh chan struct{}
}

// New constructs a queue over items and begins draining immediately.
// Ownership of the item sequence transfers to the queue. The handler is
// invoked with one item at a time and must call Advance when it is done
// with it. A nil handler panics.
func New[T any](items []T, handler func(T), opts ...Option[T]) *Queue[T] {
	if handler == nil {
		panic("queue: handler must not be nil")
	}

	capacity := len(items)
	if capacity < defaultQueueCap {
		capacity = defaultQueueCap
	}

	q := &Queue[T]{
		items:        append(make([]T, 0, capacity), items...),
		handler:      handler,
		pollInterval: defaultPollInterval,
		idleCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	go q.Advance()
	return q
}

// Advance moves the queue forward by one decision:
//
//   - items pending and the lane open: dequeue the front item, mark it in
//     flight, and invoke the handler with it on a fresh goroutine;
//   - items pending but the queue is paused or the admission check says
//     no: schedule a retry after the poll interval, consuming nothing;
//   - nothing pending: clear the in-flight item and signal drained (once
//     per idle transition).
//
// The handler calls Advance when it has finished with its item; the queue
// never auto-continues past an item on its own.
func (q *Queue[T]) Advance() {
	q.mu.Lock()

	if len(q.items) == 0 {
		var zero T
		q.current = zero
		q.inFlight = false
		q.blockedPolls = 0

		var drained func()
		select {
		case <-q.idleCh:
			// Already idle; nothing new to signal.
		default:
			close(q.idleCh)
			drained = q.onDrained
		}
		q.mu.Unlock()

		if drained != nil {
			drained()
		}
		return
	}

	if q.paused || (q.admission != nil && !q.admission()) {
		q.blockedPolls++
		var stalled func()
		if q.stallAfter > 0 && q.blockedPolls == q.stallAfter {
			stalled = q.onStalled
		}
		d := q.pollInterval
		q.mu.Unlock()

		if stalled != nil {
			stalled()
		}
		time.AfterFunc(d, q.Advance)
		return
	}

	q.blockedPolls = 0

	item := q.items[0]
	var zero T
	q.items[0] = zero // release the reference
	q.items = q.items[1:]
	q.maybeCompactLocked()

	q.current = item
	q.inFlight = true
	handler := q.handler
	q.mu.Unlock()

	// Fresh goroutine so handler stacks never nest when a handler calls
	// Advance synchronously.
	go handler(item)
}

// Append adds items to the back of the pending sequence. If the queue was
// idle (nothing pending, nothing in flight), draining resumes automatically.
func (q *Queue[T]) Append(items ...T) {
	q.enqueue(items, false)
}

// Prepend inserts items ahead of everything pending, without disturbing an
// item already in flight. If the queue was idle, draining resumes
// automatically.
func (q *Queue[T]) Prepend(items ...T) {
	q.enqueue(items, true)
}

func (q *Queue[T]) enqueue(items []T, front bool) {
	if len(items) == 0 {
		return
	}

	q.mu.Lock()

	// Idle means the previous drain loop has finished and observed the
	// empty queue; only then does insertion need to restart it.
	wasIdle := false
	select {
	case <-q.idleCh:
		wasIdle = true
	default:
	}

	if front {
		merged := make([]T, 0, len(items)+len(q.items))
		merged = append(merged, items...)
		merged = append(merged, q.items...)
		q.items = merged
	} else {
		q.items = append(q.items, items...)
	}

	if wasIdle {
		q.idleCh = make(chan struct{})
	}
	q.mu.Unlock()

	if wasIdle {
		go q.Advance()
	}
}

// Clear empties the pending sequence. It does not affect an item already in
// flight.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = make([]T, 0, defaultQueueCap)
}

// Pause halts advancement after the current item; pending items are kept.
func (q *Queue[T]) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = true
}

// Resume lifts a pause. The next poll tick continues draining.
func (q *Queue[T]) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = false
}

// Paused reports whether the queue is paused.
func (q *Queue[T]) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Len returns the number of pending items, excluding an in-flight item.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Current returns the item in flight, if any.
func (q *Queue[T]) Current() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current, q.inFlight
}

// Idle reports whether nothing is pending and nothing is in flight.
func (q *Queue[T]) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0 && !q.inFlight
}

// Wait blocks until the queue's next idle transition, or until ctx is done.
func (q *Queue[T]) Wait(ctx context.Context) error {
	q.mu.Lock()
	ch := q.idleCh
	q.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) maybeCompactLocked() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]T, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := c / 2
	if newCap < defaultQueueCap {
		newCap = defaultQueueCap
	}
	if newCap < n {
		newCap = n
	}

	compacted := make([]T, n, newCap)
	copy(compacted, q.items)
	q.items = compacted
}
