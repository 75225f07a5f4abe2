package probe

import (
	"errors"
	"fmt"
)

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrSchemaMissing    = errors.New("schema missing")
	ErrWriteFailed      = errors.New("write failed")
	ErrReadFailed       = errors.New("read failed")
	// ErrCleanupFailed is a warning: the run stays healthy.
	ErrCleanupFailed = errors.New("cleanup failed")
)

// StepError describes why a probe step failed. Kind is one of the Err*
// sentinels above; Err is the underlying cause when there is one.
type StepError struct {
	Step       string
	Kind       error
	StatusCode int
	Detail     string
	Err        error
}

func (e *StepError) Error() string {
	msg := e.Step + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FailureKind maps an error to the short code stored in reports and metric
// labels. It returns "" for nil and "unknown" for foreign errors.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchemaMissing):
		return "schema_missing"
	case errors.Is(err, ErrConnectionFailed):
		return "connection_failed"
	case errors.Is(err, ErrWriteFailed):
		return "write_failed"
	case errors.Is(err, ErrReadFailed):
		return "read_failed"
	case errors.Is(err, ErrCleanupFailed):
		return "cleanup_failed"
	default:
		return "unknown"
	}
}
