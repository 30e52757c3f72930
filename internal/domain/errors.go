// Package domain holds the error taxonomy and small value types shared by
// every service package.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is missing or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when an operation needs a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the user is signed in but not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a unique identifier is already taken.
	ErrConflict = errors.New("conflict")
	// ErrExhausted is returned when a bounded retry loop gave up.
	ErrExhausted = errors.New("retries exhausted")
)

// ValidationError describes user-correctable input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}

	return e.Message
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError wraps a collaborator failure. The message is safe to show,
// the cause is for logs only.
type UpstreamError struct {
	Op    string
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Upstream wraps err as an UpstreamError. A nil err stays nil.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}

	return &UpstreamError{Op: op, Cause: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}
