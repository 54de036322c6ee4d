package api

import "context"

// Handler is the unit of work executed for a single step. It receives the
// current run state, so it can read earlier results via ResultAt/ResultOf,
// and returns the step's value or an error that fails the run.
type Handler func(ctx context.Context, r *Run) (any, error)

// EnabledFunc gates a step. It is evaluated synchronously right before the
// step's handler would run; returning false records the skip marker in the
// step's result slot and the handler is never invoked.
type EnabledFunc func(r *Run) bool

// StepSpec describes one step of a run: an optional unique name, the
// mandatory handler, and an optional enabled gate.
//
// Prefer the Step/Named/StepWhen/NamedWhen constructors over struct literals;
// they make the intended shape explicit and let NewRun report precise
// construction errors.
type StepSpec struct {
	Name    string
	Fn      Handler
	Enabled EnabledFunc

	// wantEnabled marks specs built via StepWhen/NamedWhen, where a nil
	// predicate is a construction error rather than "always enabled".
	wantEnabled bool
}

// Step builds an unnamed, always-enabled step.
func Step(fn Handler) StepSpec {
	return StepSpec{Fn: fn}
}

// Named builds a step whose result is additionally exposed under name.
// An empty name is treated as unnamed.
func Named(name string, fn Handler) StepSpec {
	return StepSpec{Name: name, Fn: fn}
}

// StepWhen builds a step that only runs while enabled returns true at the
// moment the step is reached; otherwise the step is skipped.
func StepWhen(fn Handler, enabled EnabledFunc) StepSpec {
	return StepSpec{Fn: fn, Enabled: enabled, wantEnabled: true}
}

// NamedWhen combines Named and StepWhen.
func NamedWhen(name string, fn Handler, enabled EnabledFunc) StepSpec {
	return StepSpec{Name: name, Fn: fn, Enabled: enabled, wantEnabled: true}
}
