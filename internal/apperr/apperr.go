package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a domain error.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Error is a categorized error with a message safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...), nil)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, fmt.Sprintf(format, args...), nil)
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...), nil)
}

// KindOf reports the category of err. Errors without a category are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing message for err. Internal errors never
// leak their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
