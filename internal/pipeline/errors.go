package pipeline

import (
	"errors"
	"fmt"
)

// Reasons carried by PreconditionError.
var (
	ErrOutputExists      = errors.New("found existing output file")
	ErrNoRegionSurvivors = errors.New("zero variants passed the region overlap filter")
)

// PreconditionError stops a run before any output is written.
type PreconditionError struct {
	Path   string
	Reason error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: %s", e.Reason, e.Path)
}

func (e *PreconditionError) Unwrap() error {
	return e.Reason
}

// IsPrecondition reports whether err is a *PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
