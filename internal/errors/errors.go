// Package errors provides error types and handling for entourage.
// It classifies failures into kinds so batch reports can distinguish a naming
// collision from a throttle or a permission problem.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for reporting and control flow.
type Kind string

// Predefined error kinds.
const (
	// KindFatalPrecondition aborts an entire run before any mutation
	// (no resolvable domain, no usable credential).
	KindFatalPrecondition Kind = "FATAL_PRECONDITION"
	// KindAlreadyExists marks a per-item create that hit an existing
	// resource with the same name. Non-fatal; usually a naming collision
	// with a previous run rather than a real failure.
	KindAlreadyExists Kind = "ALREADY_EXISTS"
	// KindRateLimited marks a throttled per-item call. Non-fatal; the
	// pacing interval is the only mitigation, no automatic retry.
	KindRateLimited Kind = "RATE_LIMITED"
	// KindPermissionDenied marks a per-item authorization failure.
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	// KindCancelled marks a run declined at the confirmation gate.
	KindCancelled Kind = "CANCELLED"
	// KindUnknown is the catch-all for everything else. Non-fatal.
	KindUnknown Kind = "UNKNOWN"
)

// AppError represents an application error with an associated kind.
type AppError struct {
	// Kind classifies the error for programmatic handling
	Kind Kind
	// Message is a user-friendly error message
	Message string
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to work with AppError by matching on Kind.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an AppError with the given kind.
func New(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// Convenience constructors for common errors

// ErrFatalPrecondition creates an error that aborts the whole run.
func ErrFatalPrecondition(message string, cause error) *AppError {
	return New(KindFatalPrecondition, message, cause)
}

// ErrAlreadyExists creates a per-item already-exists error.
func ErrAlreadyExists(message string, cause error) *AppError {
	return New(KindAlreadyExists, message, cause)
}

// ErrRateLimited creates a per-item throttling error.
func ErrRateLimited(message string, cause error) *AppError {
	return New(KindRateLimited, message, cause)
}

// ErrPermissionDenied creates a per-item authorization error.
func ErrPermissionDenied(message string, cause error) *AppError {
	return New(KindPermissionDenied, message, cause)
}

// ErrUnknown creates a catch-all per-item error.
func ErrUnknown(message string, cause error) *AppError {
	return New(KindUnknown, message, cause)
}

// ErrCancelled is returned when the operator declines the confirmation gate.
// It maps to exit code 2, distinct from failures.
var ErrCancelled = &AppError{Kind: KindCancelled, Message: "operation cancelled"}

// KindOf extracts the kind from an error.
// Returns KindUnknown if the error carries no AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsFatal reports whether the error should abort the entire run.
func IsFatal(err error) bool {
	return KindOf(err) == KindFatalPrecondition
}

// IsCancelled reports whether the error is a declined confirmation gate.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// GetErrorMessage extracts a user-friendly message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
