package work

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/tohenk/go-work/internal/engine"
	"github.com/tohenk/go-work/internal/journal"
	"github.com/tohenk/go-work/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Runner               = api.Runner
	Run                  = api.Run
	RunRecord            = api.RunRecord
	RunListOptions       = api.RunListOptions
	Status               = api.Status
	Handler              = api.Handler
	EnabledFunc          = api.EnabledFunc
	StepSpec             = api.StepSpec
	Options              = api.Options
	Defaults             = api.Defaults
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export step constructors and common observer helpers.

var (
	Step      = api.Step
	Named     = api.Named
	StepWhen  = api.StepWhen
	NamedWhen = api.NamedWhen

	IsSkipped = api.IsSkipped
	Skipped   = api.Skipped

	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export status values for convenience.

const (
	StatusRunning   = api.StatusRunning
	StatusCompleted = api.StatusCompleted
	StatusFailed    = api.StatusFailed
)

// Config describes how to construct a Runner. The zero value is usable:
// no observer, default logger, in-memory run history.
type Config struct {
	// Observer receives run and step lifecycle events.
	Observer Observer

	// Logger is used for debug logging of step values.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Defaults are runner-wide option defaults applied to every Run call.
	Defaults Defaults

	// DB, if set, persists run history in a SQLite database instead of
	// keeping it in memory. The caller owns the *sql.DB and must import a
	// SQLite driver such as modernc.org/sqlite.
	DB *sql.DB
}

// Runner constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewRunner returns a Runner whose run history is kept entirely in memory.
func NewRunner() Runner {
	return engine.New(engine.Config{})
}

// NewRunnerWithObserver returns an in-memory Runner with the given Observer.
func NewRunnerWithObserver(obs Observer) Runner {
	return engine.New(engine.Config{Observer: obs})
}

// NewSQLiteRunner returns a Runner that persists run history in a SQLite
// database.
func NewSQLiteRunner(db *sql.DB) (Runner, error) {
	return NewRunnerWithConfig(Config{DB: db})
}

// NewSQLiteRunnerWithObserver returns a SQLite-backed Runner with the given
// Observer.
func NewSQLiteRunnerWithObserver(db *sql.DB, obs Observer) (Runner, error) {
	return NewRunnerWithConfig(Config{DB: db, Observer: obs})
}

// NewRunnerWithConfig creates a new Runner using the given configuration.
func NewRunnerWithConfig(cfg Config) (Runner, error) {
	var store journal.Store
	if cfg.DB != nil {
		s, err := journal.NewSQLiteStore(cfg.DB)
		if err != nil {
			return nil, err
		}
		store = s
	}

	return engine.New(engine.Config{
		Journal:  store,
		Observer: cfg.Observer,
		Logger:   cfg.Logger,
		Defaults: cfg.Defaults,
	}), nil
}

// Convenience helpers that just forward to the underlying Runner.
// Execution itself goes through Runner.Run or PlanBuilder.Run.

// GetRun fetches a journaled run by ID.
func GetRun(ctx context.Context, r Runner, id string) (*RunRecord, error) {
	return r.GetRun(ctx, id)
}

// ListRuns lists journaled runs according to the given options.
func ListRuns(ctx context.Context, r Runner, opts RunListOptions) ([]*RunRecord, error) {
	return r.ListRuns(ctx, opts)
}
