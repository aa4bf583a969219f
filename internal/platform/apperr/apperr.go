// Package apperr defines the error kinds shared by handlers, services and
// repositories, and the HTTP status each kind maps to.
package apperr

import (
	"errors"
	"net/http"
)

// Kinds. Match with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrInternal        = errors.New("internal error")
)

// Error is a classified failure. Message is safe to show to clients; Cause is
// kept for logs only.
type Error struct {
	Kind    error
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Unauthenticated(msg string) *Error { return newError(ErrUnauthenticated, msg) }
func InvalidInput(msg string) *Error    { return newError(ErrInvalidInput, msg) }
func NotFound(msg string) *Error        { return newError(ErrNotFound, msg) }
func Conflict(msg string) *Error        { return newError(ErrConflict, msg) }
func RateLimited(msg string) *Error     { return newError(ErrRateLimited, msg) }

// Forbidden carries extra body fields, e.g. the required and current roles.
func Forbidden(msg string, details map[string]any) *Error {
	e := newError(ErrForbidden, msg)
	e.Details = details
	return e
}

func Internal(msg string, cause error) *Error {
	e := newError(ErrInternal, msg)
	e.Cause = cause
	return e
}

// Or returns err unchanged when it is already classified, and otherwise wraps
// it as an internal error with msg as the client-facing message.
func Or(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return Internal(msg, err)
}

var statusMap = map[error]int{
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrForbidden:       http.StatusForbidden,
	ErrInvalidInput:    http.StatusBadRequest,
	ErrNotFound:        http.StatusNotFound,
	ErrConflict:        http.StatusBadRequest,
	ErrRateLimited:     http.StatusTooManyRequests,
	ErrInternal:        http.StatusInternalServerError,
}

// Status returns the HTTP status for err, defaulting to 500.
func Status(err error) int {
	for kind, code := range statusMap {
		if errors.Is(err, kind) {
			return code
		}
	}
	return http.StatusInternalServerError
}
