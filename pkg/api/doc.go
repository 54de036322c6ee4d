// Package api contains the core building blocks used by the go-work
// sequential runner. It provides the low-level primitives for describing
// steps, inspecting run state, and observing runner behavior.
//
// Most users interact with the higher-level work package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// runner itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Step specs and handlers
//   - Run state and result accessors
//   - Per-run options and runner-wide defaults
//   - Observability
//
// # Step Specs
//
// A StepSpec describes one unit of sequential work: the mandatory handler,
// an optional unique name used to look up the step's result later, and an
// optional enabled gate evaluated right before the handler would run. The
// Step, Named, StepWhen and NamedWhen constructors build the recognized
// shapes; NewRun normalizes a spec list once, assigns positions in
// declaration order, and rejects malformed specs before any handler runs.
//
// # Run State
//
// A Run holds everything a handler may want to know about the run in flight:
// the results recorded so far (position-indexed, with a skip marker for
// steps whose gate returned false), the named-results map, and the last
// value actually produced by a handler. Runs are advanced strictly one step
// at a time; a later step's handler never starts before the previous step
// settled.
//
// # Observability
//
// The Observer interface reports run and step lifecycle events. Ready-made
// implementations cover structured logging (log/slog), basic in-memory
// metrics, and fan-out composition; a Prometheus-backed observer lives in
// the observability/prometheus package.
package api
