package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testPoll = 2 * time.Millisecond

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// collector records handled items and advances the queue after each one.
type collector struct {
	mu    sync.Mutex
	items []int
	q     *Queue[int]
}

func (c *collector) handle(item int) {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
	c.q.Advance()
}

func (c *collector) snapshot() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.items))
	copy(out, c.items)
	return out
}

// newCollectorQueue builds an initially empty queue; starting empty
// guarantees the handler never runs before the queue reference is wired.
func newCollectorQueue(t *testing.T, opts ...Option[int]) (*Queue[int], *collector) {
	t.Helper()

	c := &collector{}
	opts = append([]Option[int]{WithPollInterval[int](testPoll)}, opts...)
	q := New(nil, c.handle, opts...)
	c.q = q

	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait for initial drain: %v", err)
	}
	return q, c
}

func TestQueueDrainsInOrder(t *testing.T) {
	q, c := newCollectorQueue(t)

	q.Append(1, 2, 3)
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	got := c.snapshot()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("handled = %v, want [1 2 3]", got)
	}
	if !q.Idle() {
		t.Fatal("queue not idle after draining")
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d, want 0", q.Len())
	}
}

func TestQueueNilHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New with nil handler did not panic")
		}
	}()
	New[int](nil, nil)
}

func TestQueuePauseHoldsItems(t *testing.T) {
	q, c := newCollectorQueue(t)

	q.Pause()
	if !q.Paused() {
		t.Fatal("Paused = false after Pause")
	}
	q.Append(1, 2, 3)

	time.Sleep(20 * testPoll)
	if got := c.snapshot(); len(got) != 0 {
		t.Fatalf("handled %v while paused", got)
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3 while paused", q.Len())
	}

	q.Resume()
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait after resume: %v", err)
	}
	if got := c.snapshot(); len(got) != 3 {
		t.Fatalf("handled = %v, want all 3 after resume", got)
	}
}

func TestQueueAdmissionBlocksAndReleases(t *testing.T) {
	var admit atomic.Bool

	q, c := newCollectorQueue(t, WithAdmission[int](admit.Load))

	q.Append(1, 2)
	time.Sleep(20 * testPoll)
	if got := c.snapshot(); len(got) != 0 {
		t.Fatalf("handled %v while admission was closed", got)
	}

	admit.Store(true)
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := c.snapshot(); len(got) != 2 {
		t.Fatalf("handled = %v, want both items", got)
	}
}

func TestQueueAppendToIdleResumes(t *testing.T) {
	q, c := newCollectorQueue(t)

	q.Append(7)
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait after append: %v", err)
	}
	got := c.snapshot()
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("handled = %v, want [7]", got)
	}

	// A second idle cycle works the same way.
	q.Append(8)
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait after second append: %v", err)
	}
	if got := c.snapshot(); len(got) != 2 || got[1] != 8 {
		t.Fatalf("handled = %v, want [7 8]", got)
	}
}

func TestQueuePrependRunsAheadOfPending(t *testing.T) {
	var mu sync.Mutex
	var handled []int

	firstStarted := make(chan struct{})
	release := make(chan struct{})

	var q *Queue[int]
	q = New([]int{1, 2, 3}, func(item int) {
		mu.Lock()
		handled = append(handled, item)
		mu.Unlock()
		if item == 1 {
			close(firstStarted)
			<-release
		}
		q.Advance()
	}, WithPollInterval[int](testPoll))

	<-firstStarted

	// Item 1 is in flight; 0 jumps the pending items but not the lane.
	q.Prepend(0)
	close(release)

	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	mu.Lock()
	got := make([]int, len(handled))
	copy(got, handled)
	mu.Unlock()

	want := []int{1, 0, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("handled = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("handled = %v, want %v", got, want)
		}
	}
}

func TestQueueClearKeepsInFlightItem(t *testing.T) {
	var mu sync.Mutex
	var handled []int

	firstStarted := make(chan struct{})
	release := make(chan struct{})

	var q *Queue[int]
	q = New([]int{1, 2, 3}, func(item int) {
		mu.Lock()
		handled = append(handled, item)
		mu.Unlock()
		if item == 1 {
			close(firstStarted)
			<-release
		}
		q.Advance()
	}, WithPollInterval[int](testPoll))

	<-firstStarted
	q.Clear()
	close(release)

	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	mu.Lock()
	got := make([]int, len(handled))
	copy(got, handled)
	mu.Unlock()

	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("handled = %v, want [1]", got)
	}
}

func TestQueueCurrentDuringFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	var q *Queue[int]
	q = New([]int{42}, func(item int) {
		close(started)
		<-release
		q.Advance()
	}, WithPollInterval[int](testPoll))

	<-started
	cur, ok := q.Current()
	if !ok || cur != 42 {
		t.Fatalf("Current = %v, %v, want 42, true", cur, ok)
	}
	if q.Idle() {
		t.Fatal("Idle reported true with an item in flight")
	}

	close(release)
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if _, ok := q.Current(); ok {
		t.Fatal("Current reported an item after draining")
	}
}

func TestQueueStallCallbackFires(t *testing.T) {
	stalled := make(chan struct{})

	New([]int{1}, func(item int) {},
		WithPollInterval[int](testPoll),
		WithAdmission[int](func() bool { return false }),
		WithStallThreshold[int](3, func() { close(stalled) }),
	)

	select {
	case <-stalled:
	case <-time.After(5 * time.Second):
		t.Fatal("stall callback never fired")
	}
}

func TestQueueDrainedCallback(t *testing.T) {
	drains := make(chan struct{}, 4)

	var q *Queue[int]
	q = New(nil, func(item int) {
		q.Advance()
	},
		WithPollInterval[int](testPoll),
		WithDrained[int](func() { drains <- struct{}{} }),
	)

	// Construction with no items drains immediately.
	select {
	case <-drains:
	case <-time.After(5 * time.Second):
		t.Fatal("initial drained signal never fired")
	}

	q.Append(1)
	select {
	case <-drains:
	case <-time.After(5 * time.Second):
		t.Fatal("drained signal after processing never fired")
	}
}

func TestQueueWaitHonorsContext(t *testing.T) {
	// The handler never advances, so the queue never drains.
	q := New([]int{1}, func(item int) {}, WithPollInterval[int](testPoll))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := q.Wait(ctx); err == nil {
		t.Fatal("Wait returned nil for a queue that never drains")
	}
}
