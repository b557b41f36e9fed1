package application

import (
	"errors"
)

// Error kinds. Every error returned by AccountService matches exactly one of
// these with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authorization error")
	ErrPersistence  = errors.New("persistence error")
	ErrInternal     = errors.New("internal error")
)

// Error carries a caller-facing message alongside its kind and cause.
type Error struct {
	Kind    error
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func validationError(msg string, details map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: msg, Details: details}
}

// asServiceError passes an *Error through and wraps anything else as kind.
func asServiceError(err error, kind error, msg string) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "Internal server error"
}
