package api

import "context"

// Options configures a single Runner.Run invocation. All fields are optional.
type Options struct {
	// AlwaysSucceed converts a step failure into a successful settlement
	// with a nil output. It never suppresses construction errors.
	AlwaysSucceed bool

	// Advance, if set, is called after each step settles instead of
	// auto-advancing. The run only continues once proceed is invoked,
	// which enables throttling or batching between steps. proceed is
	// idempotent and may be called from any goroutine.
	Advance func(proceed func(), r *Run)

	// Done is the completion hook, called exactly once per run on every
	// exit path (success, failure, or an empty step list) before the run
	// settles. failure is nil on the success paths. The run's settlement
	// waits for Done to return; on an otherwise successful run a non-nil
	// error from Done fails the run, while on a failed run the original
	// failure wins.
	Done func(ctx context.Context, r *Run, failure error) error

	// OnError is called only when the run ends in failure and the failure
	// is not suppressed by AlwaysSucceed. When set it overrides the
	// runner-wide default.
	OnError func(r *Run)

	// Dump formats step values for debug logging. Cosmetic only.
	Dump func(v any) string
}

// Defaults holds runner-wide option defaults, applied to every Run call.
// This replaces hidden process-wide configuration: the owner of the Runner
// owns the defaults.
type Defaults struct {
	// Initializer is invoked once per Run call with the resolved per-run
	// options, before execution starts, and may mutate them in place
	// (for example to inject a default OnError).
	Initializer func(o *Options)

	// OnError is used when the per-run options do not set one.
	OnError func(r *Run)

	// Dump is used when the per-run options do not set one.
	Dump func(v any) string
}

// Runner is the high-level orchestrator API. A Runner is a factory for runs:
// it carries option defaults, the observer, and the run journal, and drives
// each submitted step list one step at a time in declaration order.
type Runner interface {
	// Run normalizes steps, executes them sequentially, and returns the
	// settled run state. The returned error is nil on success (including
	// AlwaysSucceed suppression) and carries the original reason on
	// failure; the *Run is non-nil whenever normalization produced one.
	Run(ctx context.Context, steps []StepSpec, opts *Options) (*Run, error)

	// GetRun looks up a journaled run by ID.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns journaled runs matching the given options.
	ListRuns(ctx context.Context, opts RunListOptions) ([]*RunRecord, error)
}
