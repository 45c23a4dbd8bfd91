package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.  The string value is what clients
// see in the "error" field of a response body.
type Kind string

const (
	KindEventNotFound        Kind = "EVENT_NOT_FOUND"
	KindInsufficientCapacity Kind = "INSUFFICIENT_CAPACITY"
	KindInvalidCategory      Kind = "INVALID_CATEGORY"
	KindStorageUnavailable   Kind = "STORAGE_UNAVAILABLE"
	KindPartialFailure       Kind = "PARTIAL_FAILURE"
	KindForbidden            Kind = "FORBIDDEN"
	KindConflict             Kind = "CONFLICT"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindCanceled             Kind = "REQUEST_CANCELED"
	KindInternal             Kind = "INTERNAL"
)

// Error is the error type returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so callers can write
// errors.Is(err, service.ErrInsufficientCapacity).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the same request may succeed later.  Only
// storage outages qualify; a partial failure must never be retried.
func (e *Error) Retryable() bool { return e.Kind == KindStorageUnavailable }

// Sentinels for errors.Is.
var (
	ErrEventNotFound        = &Error{Kind: KindEventNotFound, Message: "event not found"}
	ErrInsufficientCapacity = &Error{Kind: KindInsufficientCapacity, Message: "no seats left"}
	ErrInvalidCategory      = &Error{Kind: KindInvalidCategory, Message: "invalid category"}
	ErrStorageUnavailable   = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable"}
	ErrPartialFailure       = &Error{Kind: KindPartialFailure, Message: "seat reserved but ticket not recorded"}
	ErrForbidden            = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrConflict             = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrCanceled             = &Error{Kind: KindCanceled, Message: "request canceled"}
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for errors that did not
// come from this package.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
