package work

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleepKeepsOutput(t *testing.T) {
	runner := NewRunner()

	run, err := runner.Run(context.Background(), Plan().
		Step(Value("carry")).
		Step(Sleep(time.Millisecond)).
		Steps(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Output != "carry" {
		t.Fatalf("Output = %v, want carry", run.Output)
	}
}

func TestSleepCancellable(t *testing.T) {
	runner := NewRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runner.Run(ctx, Plan().
		Step(Sleep(time.Minute)).
		Steps(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want %v", err, context.DeadlineExceeded)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Sleep ignored cancellation, took %v", elapsed)
	}
}

func TestSleepUntilPastDeadline(t *testing.T) {
	runner := NewRunner()

	run, err := runner.Run(context.Background(), Plan().
		Step(Value(9)).
		Step(SleepUntil(time.Now().Add(-time.Hour))).
		Steps(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Output != 9 {
		t.Fatalf("Output = %v, want 9", run.Output)
	}
}

func TestRecall(t *testing.T) {
	runner := NewRunner()

	run, err := runner.Run(context.Background(), Plan().
		Named("seed", Value(21)).
		Step(Value("noise")).
		Step(Recall("seed")).
		Steps(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Output != 21 {
		t.Fatalf("Output = %v, want 21", run.Output)
	}
}

func TestRecallUnknownNameFailsRun(t *testing.T) {
	runner := NewRunner()

	_, err := runner.Run(context.Background(), Plan().
		Step(Recall("missing")).
		Steps(), nil)
	if err == nil {
		t.Fatal("expected failure for an unknown name")
	}
}
