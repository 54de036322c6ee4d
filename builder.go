package work

import (
	"context"
	"fmt"
)

// PlanBuilder provides a fluent API for assembling a step list:
//
//	steps := work.Plan().
//	    Named("createAccount", createAccount).
//	    Step(sendWelcomeEmail).
//	    When(archive, func(r *work.Run) bool { return r.Output != nil }).
//	    Steps()
//
//	run, err := runner.Run(ctx, steps, nil)
type PlanBuilder struct {
	steps []StepSpec
}

// Plan creates a new, empty PlanBuilder.
func Plan() *PlanBuilder {
	return &PlanBuilder{
		steps: make([]StepSpec, 0),
	}
}

// Step appends an unnamed, always-enabled step.
func (b *PlanBuilder) Step(fn Handler) *PlanBuilder {
	if fn == nil {
		panic(fmt.Sprintf("work: step %d has nil handler", len(b.steps)))
	}
	b.steps = append(b.steps, Step(fn))
	return b
}

// Named appends a step whose result is also exposed under name.
func (b *PlanBuilder) Named(name string, fn Handler) *PlanBuilder {
	if name == "" {
		panic("work: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("work: step %q has nil handler", name))
	}
	b.steps = append(b.steps, Named(name, fn))
	return b
}

// When appends a step gated by enabled.
func (b *PlanBuilder) When(fn Handler, enabled EnabledFunc) *PlanBuilder {
	if fn == nil {
		panic(fmt.Sprintf("work: step %d has nil handler", len(b.steps)))
	}
	if enabled == nil {
		panic(fmt.Sprintf("work: step %d has nil enabled predicate", len(b.steps)))
	}
	b.steps = append(b.steps, StepWhen(fn, enabled))
	return b
}

// NamedWhen appends a named step gated by enabled.
func (b *PlanBuilder) NamedWhen(name string, fn Handler, enabled EnabledFunc) *PlanBuilder {
	if name == "" {
		panic("work: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("work: step %q has nil handler", name))
	}
	if enabled == nil {
		panic(fmt.Sprintf("work: step %q has nil enabled predicate", name))
	}
	b.steps = append(b.steps, NamedWhen(name, fn, enabled))
	return b
}

// Steps returns the assembled step list.
func (b *PlanBuilder) Steps() []StepSpec {
	return b.steps
}

// Len returns the number of assembled steps.
func (b *PlanBuilder) Len() int {
	return len(b.steps)
}

// Run executes the assembled steps on r.
func (b *PlanBuilder) Run(ctx context.Context, r Runner, opts *Options) (*Run, error) {
	return r.Run(ctx, b.steps, opts)
}
