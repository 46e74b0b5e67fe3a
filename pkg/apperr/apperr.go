// Package apperr defines the error kinds shared by every service so
// handlers can map failures to responses without string matching
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindAccessDenied covers both "forbidden" and "does not exist" so
	// responses never leak whether a project id is real
	KindAccessDenied Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindOperation
)

func (k Kind) String() string {
	switch k {
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "operation"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s, %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func AccessDenied(msg string) error {
	return &Error{Kind: KindAccessDenied, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Operation(msg string, err error) error {
	return &Error{Kind: KindOperation, Msg: msg, Err: err}
}

// KindOf reports the kind of err, or KindOperation for anything
// that isn't an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOperation
}

// Message returns the human readable message of an *Error, or a generic
// one for anything else so internals never leak into responses
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindOperation {
		return e.Msg
	}
	return "Internal server error"
}

func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
