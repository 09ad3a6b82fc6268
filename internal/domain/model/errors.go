package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by stores and aggregators.
var (
	ErrDataLoad        = errors.New("data load failed")
	ErrNoMatch         = errors.New("no matching rows")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotReady        = errors.New("pipeline not ready")
)

// DataLoadError reports a malformed, missing or duplicate-keyed source. It is fatal to startup.
type DataLoadError struct {
	Source string
	Op     string
	Err    error
}

// NewDataLoadError wraps err with the failing source and operation.
func NewDataLoadError(source, op string, err error) *DataLoadError {
	return &DataLoadError{Source: source, Op: op, Err: err}
}

func (e *DataLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Is lets callers match any load failure with errors.Is(err, ErrDataLoad).
func (e *DataLoadError) Is(target error) bool { return target == ErrDataLoad }

// QueryError signals a selection with no matching rows. The accompanying result is
// still valid (empty or zero-filled).
type QueryError struct {
	View string
	Name string
	Year int
}

func (e *QueryError) Error() string {
	if e.Year == 0 {
		return fmt.Sprintf("%s: no rows for name %q", e.View, e.Name)
	}
	return fmt.Sprintf("%s: no rows for name %q in %d", e.View, e.Name, e.Year)
}

func (e *QueryError) Unwrap() error { return ErrNoMatch }
