// Package work provides two small sequencing primitives for running
// asynchronous operations one at a time, in order: a sequential step runner
// and a self-draining work queue.
//
// Both primitives solve the same hard problem at different levels of
// structure: safely advancing a mutable list of pending units of work one at
// a time, with deferred scheduling, backpressure controls, and a uniform
// completion funnel. Neither ever runs two units concurrently; a later unit
// never starts before the previous one settled.
//
// # Core Concepts
//
//  1. Runner
//  2. StepSpec and PlanBuilder
//  3. Run
//  4. Queue
//
// # Runner
//
// The Runner is a factory for runs. It carries runner-wide option defaults,
// an observer, and a run journal, and executes each submitted step list
// strictly one step at a time:
//
//	runner := work.NewRunner()
//	run, err := runner.Run(ctx, work.Plan().
//	    Named("fetch", fetch).
//	    Named("transform", transform).
//	    When(cleanup, cleanupNeeded).
//	    Steps(), nil)
//
// Each step's handler receives the run state, so it can read earlier
// results by position or name. A step may declare an enabled gate; when the
// gate returns false at the moment the step is reached, the handler is
// skipped and a skip marker is recorded in its result slot.
//
// Per-run Options cover failure suppression (AlwaysSucceed), a completion
// hook invoked on every exit path (Done), a throttling gate between steps
// (Advance), and a failure callback (OnError). Run history is journaled in
// memory by default, or in SQLite via NewSQLiteRunner.
//
// # Run
//
// A Run is the state of one invocation: position-indexed results (with skip
// markers), a named-results map, the last value actually produced by a
// handler, and the captured failure if any. It remains readable after the
// run settles, and the journal keeps a record of it beyond that.
//
// # Queue
//
// The queue subpackage drains an ordered sequence of opaque items through a
// caller-supplied handler, one item at a time. The handler owns pacing: it
// calls Advance when it has finished with the current item. Queues support
// pausing, an admission-check predicate, dynamic insertion at the front or
// back, and a drained signal on each idle transition. See the queue package
// documentation for details.
//
// # Observability
//
// Observers receive run and step lifecycle events. Ready-made
// implementations cover structured logging via log/slog, basic in-memory
// metrics, fan-out composition, and Prometheus collectors (in
// observability/prometheus).
//
// For runnable examples, see the /examples directory.
package work
