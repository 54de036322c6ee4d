package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tohenk/go-work/pkg/api"
)

func TestRunObserverCounters(t *testing.T) {
	reg := prom.NewRegistry()
	obs, err := NewRunObserver("testwork", reg, ObserverOptions{})
	if err != nil {
		t.Fatalf("NewRunObserver: %v", err)
	}

	ctx := context.Background()
	r := &api.Run{ID: "r1"}

	obs.OnRunStart(ctx, r)
	obs.OnRunStart(ctx, r)
	obs.OnRunCompleted(ctx, r)
	obs.OnRunFailed(ctx, r, errors.New("boom"))
	obs.OnStepSkipped(ctx, r, "gate", 0)

	if got := testutil.ToFloat64(obs.runsStartedTotal); got != 2 {
		t.Errorf("runs_started_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(obs.runsCompletedTotal); got != 1 {
		t.Errorf("runs_completed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.runsFailedTotal); got != 1 {
		t.Errorf("runs_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.stepsSkippedTotal); got != 1 {
		t.Errorf("steps_skipped_total = %v, want 1", got)
	}
}

func TestRunObserverStepDuration(t *testing.T) {
	reg := prom.NewRegistry()
	obs, err := NewRunObserver("testwork", reg, ObserverOptions{
		DurationBuckets: []float64{0.1, 1},
	})
	if err != nil {
		t.Fatalf("NewRunObserver: %v", err)
	}

	ctx := context.Background()
	r := &api.Run{ID: "r1"}

	obs.OnStepCompleted(ctx, r, "a", 0, nil, 50*time.Millisecond)
	obs.OnStepCompleted(ctx, r, "b", 1, errors.New("boom"), 10*time.Millisecond)

	if got := testutil.CollectAndCount(obs.stepDurationSeconds, "testwork_step_duration_seconds"); got != 2 {
		t.Errorf("step_duration_seconds series = %d, want 2", got)
	}
}

func TestRunObserverReusesRegisteredCollectors(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewRunObserver("testwork", reg, ObserverOptions{})
	if err != nil {
		t.Fatalf("first NewRunObserver: %v", err)
	}
	second, err := NewRunObserver("testwork", reg, ObserverOptions{})
	if err != nil {
		t.Fatalf("second NewRunObserver: %v", err)
	}

	ctx := context.Background()
	r := &api.Run{ID: "r1"}
	first.OnRunStart(ctx, r)
	second.OnRunStart(ctx, r)

	// Both observers share the registered counter.
	if got := testutil.ToFloat64(second.runsStartedTotal); got != 2 {
		t.Errorf("runs_started_total = %v, want 2", got)
	}
}
