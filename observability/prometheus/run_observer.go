// Package prometheus adapts run and step lifecycle events to Prometheus
// collectors, so a service embedding the runner can expose its sequencing
// activity on an existing registry.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/tohenk/go-work/pkg/api"
)

// ObserverOptions controls collector configuration.
type ObserverOptions struct {
	DurationBuckets []float64
}

// RunObserver implements api.Observer on top of Prometheus collectors.
type RunObserver struct {
	runsStartedTotal    prom.Counter
	runsCompletedTotal  prom.Counter
	runsFailedTotal     prom.Counter
	stepsSkippedTotal   prom.Counter
	stepDurationSeconds *prom.HistogramVec
}

var _ api.Observer = (*RunObserver)(nil)

// NewRunObserver creates and registers Prometheus collectors for run and
// step lifecycle events.
func NewRunObserver(namespace string, reg prom.Registerer, opts ObserverOptions) (*RunObserver, error) {
	if namespace == "" {
		namespace = "work"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	started := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "runs_started_total",
		Help:      "Total number of runs started.",
	})
	completed := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "runs_completed_total",
		Help:      "Total number of runs that settled successfully.",
	})
	failed := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "runs_failed_total",
		Help:      "Total number of runs that settled in failure.",
	})
	skipped := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "steps_skipped_total",
		Help:      "Total number of steps skipped by their enabled gate.",
	})
	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "step_duration_seconds",
		Help:      "Step handler duration in seconds.",
		Buckets:   buckets,
	}, []string{"outcome"})

	var err error
	if started, err = registerCollector(reg, started); err != nil {
		return nil, err
	}
	if completed, err = registerCollector(reg, completed); err != nil {
		return nil, err
	}
	if failed, err = registerCollector(reg, failed); err != nil {
		return nil, err
	}
	if skipped, err = registerCollector(reg, skipped); err != nil {
		return nil, err
	}
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}

	return &RunObserver{
		runsStartedTotal:    started,
		runsCompletedTotal:  completed,
		runsFailedTotal:     failed,
		stepsSkippedTotal:   skipped,
		stepDurationSeconds: durationVec,
	}, nil
}

func (o *RunObserver) OnRunStart(ctx context.Context, r *api.Run) {
	if o == nil {
		return
	}
	o.runsStartedTotal.Inc()
}

func (o *RunObserver) OnRunCompleted(ctx context.Context, r *api.Run) {
	if o == nil {
		return
	}
	o.runsCompletedTotal.Inc()
}

func (o *RunObserver) OnRunFailed(ctx context.Context, r *api.Run, err error) {
	if o == nil {
		return
	}
	o.runsFailedTotal.Inc()
}

func (o *RunObserver) OnStepStart(ctx context.Context, r *api.Run, name string, pos int) {
}

func (o *RunObserver) OnStepCompleted(ctx context.Context, r *api.Run, name string, pos int, err error, d time.Duration) {
	if o == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.stepDurationSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

func (o *RunObserver) OnStepSkipped(ctx context.Context, r *api.Run, name string, pos int) {
	if o == nil {
		return
	}
	o.stepsSkippedTotal.Inc()
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
