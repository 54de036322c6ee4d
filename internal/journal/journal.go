// Package journal persists the outcome of finished and in-flight runs so
// callers can inspect run history after the Run value itself is discarded.
// It stores settled state only; pending steps are never persisted and a
// process restart never resumes a run.
package journal

import (
	"errors"

	"github.com/tohenk/go-work/pkg/api"
)

// ErrRunNotFound is returned when a run record is not found.
var ErrRunNotFound = errors.New("run not found")

// Filter is used to select run records from the store.
// Empty values mean "no filter" for that field.
type Filter struct {
	Status api.Status
}

// Store handles storage of run records.
type Store interface {
	SaveRun(rec *api.RunRecord) error
	UpdateRun(rec *api.RunRecord) error
	GetRun(id string) (*api.RunRecord, error)
	ListRuns(filter Filter) ([]*api.RunRecord, error)
}
