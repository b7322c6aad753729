package floweditor

import (
	"errors"
	"fmt"
)

// Sentinel errors for the flow editor core. Callers classify failures with
// errors.Is; the HTTP layer maps them to 400 (validation, resolution) and
// 409 (in-use conflict) envelopes.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrInUseConflict    = errors.New("flow is in use")
	ErrResolutionFailed = errors.New("charging resolution failed")
	ErrStaleResolution  = errors.New("stale charging resolution discarded")
)

// ValidationError reports a single invalid field on submit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// ConflictError reports an attempted edit of a field that is locked while
// the flow is referenced by in-flight submissions.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("field %s is locked while the flow is in use", e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrInUseConflict }
