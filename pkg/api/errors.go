package api

import "errors"

var (
	// ErrHandlerRequired is reported at construction time for a step spec
	// with a nil handler.
	ErrHandlerRequired = errors.New("handler required")

	// ErrEnabledFuncRequired is reported at construction time when a spec
	// built via StepWhen/NamedWhen carries a nil predicate.
	ErrEnabledFuncRequired = errors.New("enabled predicate required")

	// ErrDuplicateStepName is reported at construction time when two steps
	// declare the same non-empty name.
	ErrDuplicateStepName = errors.New("duplicate step name")

	// ErrUnknownName is returned by ResultOf for a name no step declared.
	ErrUnknownName = errors.New("unknown step name")

	// ErrResultOutOfRange is returned by ResultAt for a position that is
	// invalid or has not been processed yet.
	ErrResultOutOfRange = errors.New("result index out of range")
)
