package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateDetected marks a candidate whose fingerprint already exists.
// It is a classification outcome rather than a failure.
var ErrDuplicateDetected = errors.New("duplicate transaction detected")

// ParseError reports an input table that has no header or no data rows.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse table: " + e.Reason
}

// ResolutionError reports a required reference that matched no entity.
type ResolutionError struct {
	Kind string
	Ref  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Kind, e.Ref)
}

// TransientExecutionError wraps a network-class failure that may succeed on retry.
type TransientExecutionError struct {
	Err error
}

func (e *TransientExecutionError) Error() string {
	return "transient execution error: " + e.Err.Error()
}

func (e *TransientExecutionError) Unwrap() error { return e.Err }

// PermanentExecutionError wraps a rejection that retrying cannot fix.
type PermanentExecutionError struct {
	Err error
}

func (e *PermanentExecutionError) Error() string {
	return "permanent execution error: " + e.Err.Error()
}

func (e *PermanentExecutionError) Unwrap() error { return e.Err }
