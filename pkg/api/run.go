package api

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// skipMarker is the placeholder recorded for a step whose enabled gate
// returned false.
type skipMarker struct{}

func (skipMarker) String() string { return "<skipped>" }

// Skipped is the marker value stored in Results for skipped steps.
var Skipped any = skipMarker{}

// IsSkipped reports whether v is the skip marker.
func IsSkipped(v any) bool {
	_, ok := v.(skipMarker)
	return ok
}

// Run holds the state of a single orchestrated run. It is created fresh per
// Runner.Run invocation, mutated only by the engine's own serialized
// advancement, and remains readable after the run settles.
//
// Handlers and enabled gates receive the Run and may use the read accessors;
// they must not mutate the exported fields.
type Run struct {
	ID     string
	Status Status

	// CurrentStep is the index of the step being executed, or the total
	// step count after successful completion.
	CurrentStep int

	// Results holds one entry per processed step, in position order.
	// Skipped steps hold the skip marker.
	Results []any

	// Named maps a step name to the value its handler produced. Skipped
	// steps never appear here.
	Named map[string]any

	// Output is the last value actually produced by a handler, which may
	// come from an earlier step when later steps were skipped.
	Output any

	// Err is the captured failure once a step fails, nil otherwise.
	Err error

	steps []StepSpec
	names map[string]int
}

// NewRun normalizes steps into a fresh run. Positions are assigned in
// declaration order; the name index contains only steps that declared a
// non-empty name. Malformed specs (nil handler, nil predicate on a
// StepWhen/NamedWhen spec, duplicate names) fail construction.
func NewRun(id string, steps []StepSpec) (*Run, error) {
	names := make(map[string]int)
	for i, s := range steps {
		if s.Fn == nil {
			return nil, fmt.Errorf("step %d: %w", i, ErrHandlerRequired)
		}
		if s.wantEnabled && s.Enabled == nil {
			return nil, fmt.Errorf("step %d: %w", i, ErrEnabledFuncRequired)
		}
		if s.Name == "" {
			continue
		}
		if prev, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("step %d: %w: %q already declared at step %d",
				i, ErrDuplicateStepName, s.Name, prev)
		}
		names[s.Name] = i
	}

	return &Run{
		ID:      id,
		Status:  StatusRunning,
		Results: make([]any, 0, len(steps)),
		Named:   make(map[string]any),
		steps:   steps,
		names:   names,
	}, nil
}

// Steps returns the normalized step specs in position order.
func (r *Run) Steps() []StepSpec { return r.steps }

// NumSteps returns the total number of declared steps.
func (r *Run) NumSteps() int { return len(r.steps) }

// ResultAt returns the result recorded at the given position. Skipped steps
// yield the skip marker. It fails with ErrResultOutOfRange when pos is
// negative, beyond the declared steps, or not yet processed.
func (r *Run) ResultAt(pos int) (any, error) {
	if pos < 0 || pos >= len(r.Results) {
		return nil, fmt.Errorf("%w: %d", ErrResultOutOfRange, pos)
	}
	return r.Results[pos], nil
}

// ResultOf resolves name to its position and returns the result recorded
// there. It fails with ErrUnknownName for an undeclared name, and with
// ErrResultOutOfRange when the named step has not been processed yet.
func (r *Run) ResultOf(name string) (any, error) {
	pos, ok := r.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return r.ResultAt(pos)
}

// NameAt returns the name declared for the given position, or false when the
// position is invalid or the step is unnamed.
func (r *Run) NameAt(pos int) (string, bool) {
	if pos < 0 || pos >= len(r.steps) || r.steps[pos].Name == "" {
		return "", false
	}
	return r.steps[pos].Name, true
}

// LastResult returns the most recent entry written to Results, which may be
// the skip marker, or nil before any step has been processed.
func (r *Run) LastResult() any {
	if len(r.Results) == 0 {
		return nil
	}
	return r.Results[len(r.Results)-1]
}

// PreviousResult returns the second-most-recent entry written to Results, or
// nil when fewer than two steps have been processed.
func (r *Run) PreviousResult() any {
	if len(r.Results) < 2 {
		return nil
	}
	return r.Results[len(r.Results)-2]
}

// RunRecord is the journaled view of a run, suitable for listing run history
// after the Run value itself is gone.
type RunRecord struct {
	ID          string
	Status      Status
	Steps       int
	CurrentStep int
	Output      any
	Err         string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RunListOptions controls how journaled runs are listed.
// Zero values mean "no filter" for that field.
type RunListOptions struct {
	// Status, if non-empty, limits results to runs with the given status.
	Status Status
}
