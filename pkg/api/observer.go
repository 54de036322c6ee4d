package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the runner for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay run execution.
type Observer interface {
	// OnRunStart is called once when a run is started, after normalization
	// and before the first step is executed.
	OnRunStart(ctx context.Context, r *Run)

	// OnRunCompleted is called when a run settles successfully, including
	// failures suppressed via AlwaysSucceed.
	OnRunCompleted(ctx context.Context, r *Run)

	// OnRunFailed is called when a run settles in StatusFailed.
	OnRunFailed(ctx context.Context, r *Run, err error)

	// OnStepStart is called before invoking a step handler.
	// pos is the step's 0-based position.
	OnStepStart(ctx context.Context, r *Run, name string, pos int)

	// OnStepCompleted is called after a step handler returns, for both
	// successes and failures (err != nil).
	OnStepCompleted(ctx context.Context, r *Run, name string, pos int, err error, duration time.Duration)

	// OnStepSkipped is called when a step's enabled gate returned false
	// and its handler was not invoked.
	OnStepSkipped(ctx context.Context, r *Run, name string, pos int)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, r *Run)             {}
func (NoopObserver) OnRunCompleted(ctx context.Context, r *Run)         {}
func (NoopObserver) OnRunFailed(ctx context.Context, r *Run, err error) {}
func (NoopObserver) OnStepStart(ctx context.Context, r *Run, name string, pos int) {
}
func (NoopObserver) OnStepCompleted(ctx context.Context, r *Run, name string, pos int, err error, d time.Duration) {
}
func (NoopObserver) OnStepSkipped(ctx context.Context, r *Run, name string, pos int) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, r *Run) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, r)
	}
}

func (c *CompositeObserver) OnRunCompleted(ctx context.Context, r *Run) {
	for _, o := range c.observers {
		o.OnRunCompleted(ctx, r)
	}
}

func (c *CompositeObserver) OnRunFailed(ctx context.Context, r *Run, err error) {
	for _, o := range c.observers {
		o.OnRunFailed(ctx, r, err)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, r *Run, name string, pos int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, r, name, pos)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, r *Run, name string, pos int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, r, name, pos, err, d)
	}
}

func (c *CompositeObserver) OnStepSkipped(ctx context.Context, r *Run, name string, pos int) {
	for _, o := range c.observers {
		o.OnStepSkipped(ctx, r, name, pos)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs run / step lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, r *Run) {
	o.Logger.InfoContext(ctx, "run_start",
		slog.String("run_id", r.ID),
		slog.Int("steps", r.NumSteps()),
	)
}

func (o *LoggingObserver) OnRunCompleted(ctx context.Context, r *Run) {
	o.Logger.InfoContext(ctx, "run_completed",
		slog.String("run_id", r.ID),
	)
}

func (o *LoggingObserver) OnRunFailed(ctx context.Context, r *Run, err error) {
	o.Logger.ErrorContext(ctx, "run_failed",
		slog.String("run_id", r.ID),
		slog.Int("step", r.CurrentStep),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, r *Run, name string, pos int) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("run_id", r.ID),
		slog.String("step", name),
		slog.Int("position", pos),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, r *Run, name string, pos int, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("run_id", r.ID),
		slog.String("step", name),
		slog.Int("position", pos),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepSkipped(ctx context.Context, r *Run, name string, pos int) {
	o.Logger.DebugContext(ctx, "step_skipped",
		slog.String("run_id", r.ID),
		slog.String("step", name),
		slog.Int("position", pos),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	runsStarted       atomic.Int64
	runsCompleted     atomic.Int64
	runsFailed        atomic.Int64
	stepsCompleted    atomic.Int64
	stepsSkipped      atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RunsStarted   int64
	RunsCompleted int64
	RunsFailed    int64
	PendingRuns   int64

	StepsCompleted  int64
	StepsSkipped    int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnRunStart(ctx context.Context, r *Run) {
	m.runsStarted.Add(1)
}

func (m *BasicMetrics) OnRunCompleted(ctx context.Context, r *Run) {
	m.runsCompleted.Add(1)
}

func (m *BasicMetrics) OnRunFailed(ctx context.Context, r *Run, err error) {
	m.runsFailed.Add(1)
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, r *Run, name string, pos int, err error, d time.Duration) {
	// Only count successful steps for average duration.
	if err == nil {
		m.stepsCompleted.Add(1)
		m.totalStepDuration.Add(d.Nanoseconds())
	}
}

func (m *BasicMetrics) OnStepSkipped(ctx context.Context, r *Run, name string, pos int) {
	m.stepsSkipped.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.runsStarted.Load()
	completed := m.runsCompleted.Load()
	failed := m.runsFailed.Load()
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		RunsStarted:     started,
		RunsCompleted:   completed,
		RunsFailed:      failed,
		PendingRuns:     started - completed - failed,
		StepsCompleted:  steps,
		StepsSkipped:    m.stepsSkipped.Load(),
		AvgStepDuration: avg,
	}
}
