package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the subsystem surfaces. Expected
// conditions are returned as kinded errors, never panics.
type ErrorKind int

const (
	// KindUnknown wraps any unanticipated underlying error.
	KindUnknown ErrorKind = iota
	// KindInvalidInput covers malformed identifiers, empty content and bad
	// urls. Never retried.
	KindInvalidInput
	// KindNotFound means an expected document is missing. Not retried.
	KindNotFound
	// KindUnauthorized means the actor is not a participant of the
	// conversation. Not retried.
	KindUnauthorized
	// KindConflict means the store's transaction retry budget was
	// exhausted. Retryable by the caller.
	KindConflict
	// KindUnavailable means connectivity loss. Retryable by the caller.
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a kinded error carrying an optional wrapped cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two errors by kind, so callers can use errors.Is with the
// sentinel constructors below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUnavailable  = &Error{Kind: KindUnavailable}
)

// InvalidInput builds an InvalidInput error.
func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Msg: msg}
}

// NotFound builds a NotFound error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Unauthorized builds an Unauthorized error.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Conflict wraps a transaction-conflict cause.
func Conflict(err error) error {
	return &Error{Kind: KindConflict, Msg: "transaction conflict", Err: err}
}

// Unavailable wraps a connectivity cause.
func Unavailable(err error) error {
	return &Error{Kind: KindUnavailable, Msg: "store unavailable", Err: err}
}

// Unknown wraps any unanticipated error without hiding it. A nil cause
// returns nil.
func Unknown(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindUnknown, Err: err}
}

// Retryable reports whether the error class may succeed on retry.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindConflict || e.Kind == KindUnavailable
}

// KindOf extracts the kind of an error, KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
