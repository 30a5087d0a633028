package state

import (
	"errors"
	"fmt"
)

// #region error-kinds
// ErrorKind classifies failures for the orchestrator's continuation policy.
type ErrorKind string

const (
	KindStage      ErrorKind = "stage_failure"      // recoverable, run continues with other variants
	KindControl    ErrorKind = "control_failure"    // fatal, aborts the run
	KindStorage    ErrorKind = "storage_failure"    // cache/memory durable I/O failed
	KindParse      ErrorKind = "parse_failure"      // structured-output recovery failed
	KindValidation ErrorKind = "validation_failure" // malformed input at a public contract
	KindTimeout    ErrorKind = "timeout"            // run-level deadline exceeded, fatal
)
// #endregion error-kinds

// #region flow-error
// FlowError is a kinded error that wraps an underlying cause.
type FlowError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
// #endregion flow-error

// #region constructors
// Errorf builds a FlowError of the given kind. A trailing %w verb wraps
// the cause the way fmt.Errorf would.
func Errorf(kind ErrorKind, format string, args ...interface{}) error {
	wrapped := fmt.Errorf(format, args...)
	return &FlowError{Kind: kind, Msg: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}
// #endregion constructors

// #region kind-of
// KindOf reports the kind of err, or KindStage when err carries no kind.
func KindOf(err error) ErrorKind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindStage
}

// IsFatal reports whether err must abort the run per the continuation policy.
func IsFatal(err error) bool {
	k := KindOf(err)
	return k == KindControl || k == KindTimeout
}
// #endregion kind-of
