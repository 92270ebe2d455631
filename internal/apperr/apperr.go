// Package apperr defines the caller-facing error kinds shared by services
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error carries a kind together with a message safe to show the caller.
type Error struct {
	// Kind is one of the package level Err* sentinels.
	Kind error
	// Message is returned to the caller verbatim.
	Message string
	// Details holds per-field validation messages.
	Details map[string]string
	// Cause is the underlying error, if any. Never shown to the caller.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool { return e.Kind == target }
func (e *Error) Unwrap() error        { return e.Cause }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return newError(ErrBadRequest, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return newError(ErrUnauthenticated, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newError(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(ErrConflict, format, args...)
}

// Validation builds a BadRequest carrying per-field details.
func Validation(details map[string]string) *Error {
	return &Error{Kind: ErrBadRequest, Message: "Validation failed", Details: details}
}

// WithCause attaches the underlying error and returns e.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
