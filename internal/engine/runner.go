// Package engine implements the sequential run state machine behind
// api.Runner: it normalizes step specs, drives them strictly one at a time
// in declaration order, funnels every failure through the completion hook,
// and journals run outcomes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tohenk/go-work/internal/journal"
	"github.com/tohenk/go-work/pkg/api"
)

// Config describes how to construct a runner.
// Only used inside this package; external callers use the constructors in
// the root work package.
type Config struct {
	Journal  journal.Store
	Observer api.Observer
	Logger   *slog.Logger
	Defaults api.Defaults
}

type runnerImpl struct {
	journal  journal.Store
	observer api.Observer
	logger   *slog.Logger
	defaults api.Defaults
}

// New creates a runner from cfg, filling in a memory journal, a noop
// observer, and the default slog logger where unset.
func New(cfg Config) api.Runner {
	st := cfg.Journal
	if st == nil {
		st = journal.NewMemoryStore()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &runnerImpl{
		journal:  st,
		observer: obs,
		logger:   logger,
		defaults: cfg.Defaults,
	}
}

func (e *runnerImpl) Run(ctx context.Context, steps []api.StepSpec, opts *api.Options) (*api.Run, error) {
	o := e.resolveOptions(opts)

	run, err := api.NewRun(uuid.NewString(), steps)
	if err != nil {
		return e.failConstruction(ctx, o, err)
	}

	rec := &api.RunRecord{
		ID:        run.ID,
		Status:    api.StatusRunning,
		Steps:     run.NumSteps(),
		StartedAt: time.Now(),
	}

	e.observer.OnRunStart(ctx, run)
	_ = e.journal.SaveRun(rec)

	specs := run.Steps()
	for i, step := range specs {
		select {
		case <-ctx.Done():
			return e.settle(ctx, o, run, rec, ctx.Err())
		default:
		}

		run.CurrentStep = i

		if step.Enabled != nil && !step.Enabled(run) {
			// Gate said no: record the skip, never invoke the handler.
			run.Results = append(run.Results, api.Skipped)
			e.observer.OnStepSkipped(ctx, run, step.Name, i)
		} else {
			e.observer.OnStepStart(ctx, run, step.Name, i)

			startTime := time.Now()
			v, err := callHandler(ctx, step, run)
			duration := time.Since(startTime)

			e.observer.OnStepCompleted(ctx, run, step.Name, i, err, duration)

			if err != nil {
				return e.settle(ctx, o, run, rec, err)
			}

			run.Results = append(run.Results, v)
			run.Output = v
			if step.Name != "" {
				run.Named[step.Name] = v
			}

			e.logger.DebugContext(ctx, "step_result",
				slog.String("run_id", run.ID),
				slog.Int("position", i),
				slog.String("value", o.Dump(v)),
			)
		}

		rec.CurrentStep = i + 1
		_ = e.journal.UpdateRun(rec)

		// Steps remain: either hand control to the advance hook and wait
		// for its proceed continuation, or advance immediately.
		if i < len(specs)-1 && o.Advance != nil {
			if err := waitForProceed(ctx, o.Advance, run); err != nil {
				return e.settle(ctx, o, run, rec, err)
			}
		}
	}

	return e.settle(ctx, o, run, rec, nil)
}

func (e *runnerImpl) GetRun(ctx context.Context, id string) (*api.RunRecord, error) {
	rec, err := e.journal.GetRun(id)
	if err != nil {
		if errors.Is(err, journal.ErrRunNotFound) {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, err
	}
	return rec, nil
}

func (e *runnerImpl) ListRuns(ctx context.Context, opts api.RunListOptions) ([]*api.RunRecord, error) {
	return e.journal.ListRuns(journal.Filter{Status: opts.Status})
}

// resolveOptions copies the per-run options, lets the runner-wide
// initializer mutate the copy, then fills remaining gaps from the defaults.
// A per-run OnError/Dump always wins over the runner-wide one.
func (e *runnerImpl) resolveOptions(opts *api.Options) *api.Options {
	var o api.Options
	if opts != nil {
		o = *opts
	}
	if e.defaults.Initializer != nil {
		e.defaults.Initializer(&o)
	}
	if o.OnError == nil {
		o.OnError = e.defaults.OnError
	}
	if o.Dump == nil {
		o.Dump = e.defaults.Dump
	}
	if o.Dump == nil {
		o.Dump = func(v any) string { return fmt.Sprintf("%v", v) }
	}
	return &o
}

// settle drives every exit path of a started run. It invokes the completion
// hook exactly once, waits for it, and resolves the final status. failure is
// nil on the success path.
func (e *runnerImpl) settle(ctx context.Context, o *api.Options, run *api.Run, rec *api.RunRecord, failure error) (*api.Run, error) {
	run.Err = failure

	if o.Done != nil {
		doneErr := o.Done(ctx, run, failure)
		if failure == nil && doneErr != nil {
			// The hook itself is the only failure; treat it like a
			// step failure so the funnel stays uniform.
			failure = doneErr
			run.Err = doneErr
		}
	}

	if failure != nil && !o.AlwaysSucceed {
		run.Status = api.StatusFailed
		if o.OnError != nil {
			o.OnError(run)
		}
		e.finishRecord(rec, run, failure)
		e.observer.OnRunFailed(ctx, run, failure)
		return run, failure
	}

	if failure != nil {
		// Suppressed: a successful settlement with no value.
		run.Output = nil
	} else {
		run.CurrentStep = run.NumSteps()
	}
	run.Status = api.StatusCompleted

	e.finishRecord(rec, run, nil)
	e.observer.OnRunCompleted(ctx, run)
	return run, nil
}

// failConstruction surfaces a malformed step list as the run's failed
// outcome. The completion hook and error handler still observe the failure,
// but AlwaysSucceed never suppresses it.
func (e *runnerImpl) failConstruction(ctx context.Context, o *api.Options, consErr error) (*api.Run, error) {
	run, _ := api.NewRun(uuid.NewString(), nil)
	run.Status = api.StatusFailed
	run.Err = consErr

	rec := &api.RunRecord{
		ID:        run.ID,
		Status:    api.StatusRunning,
		StartedAt: time.Now(),
	}
	_ = e.journal.SaveRun(rec)

	if o.Done != nil {
		_ = o.Done(ctx, run, consErr)
	}
	if o.OnError != nil {
		o.OnError(run)
	}

	e.finishRecord(rec, run, consErr)
	e.observer.OnRunFailed(ctx, run, consErr)
	return run, consErr
}

func (e *runnerImpl) finishRecord(rec *api.RunRecord, run *api.Run, failure error) {
	rec.Status = run.Status
	rec.CurrentStep = run.CurrentStep
	rec.Output = run.Output
	if failure != nil {
		rec.Err = failure.Error()
	}
	rec.FinishedAt = time.Now()
	_ = e.journal.UpdateRun(rec)
}

// callHandler invokes a step handler, converting a panic into an ordinary
// step failure so both routes observe identical behavior.
func callHandler(ctx context.Context, step api.StepSpec, run *api.Run) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step %d panicked: %v", run.CurrentStep, p)
		}
	}()
	return step.Fn(ctx, run)
}

// waitForProceed hands control to the advance hook and blocks until its
// proceed continuation fires. proceed is idempotent and safe to call from
// any goroutine; each gap between steps has exactly one consumer, so a
// single one-shot channel is all the signaling needed.
func waitForProceed(ctx context.Context, advance func(proceed func(), r *api.Run), run *api.Run) error {
	proceed := make(chan struct{})
	var once sync.Once

	advance(func() {
		once.Do(func() { close(proceed) })
	}, run)

	select {
	case <-proceed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
