package work

import (
	"context"
	"time"
)

// Sleep returns a handler that waits for the given duration and re-emits
// the last value produced so far, leaving the run output unchanged.
//
// It is context-aware: if the context is cancelled during the sleep,
// it returns ctx.Err and the run will fail at this step.
func Sleep(d time.Duration) Handler {
	return func(ctx context.Context, r *Run) (any, error) {
		if d <= 0 {
			return r.Output, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
			return r.Output, nil
		}
	}
}

// SleepUntil returns a handler that waits until the given deadline and
// re-emits the last value produced so far.
//
// If the deadline is in the past or equal to now, it returns immediately.
// It is context-aware: if the context is cancelled while waiting,
// it returns ctx.Err and the run will fail at this step.
func SleepUntil(deadline time.Time) Handler {
	return func(ctx context.Context, r *Run) (any, error) {
		now := time.Now()
		if !deadline.After(now) {
			return r.Output, nil
		}
		d := time.Until(deadline)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
			return r.Output, nil
		}
	}
}

// Value returns a handler that produces the given constant.
func Value(v any) Handler {
	return func(ctx context.Context, r *Run) (any, error) {
		return v, nil
	}
}

// Recall returns a handler that re-emits the result recorded for the named
// step. It fails when the name is unknown or the step has not run yet.
func Recall(name string) Handler {
	return func(ctx context.Context, r *Run) (any, error) {
		return r.ResultOf(name)
	}
}
