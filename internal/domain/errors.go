package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the engine can surface to a caller.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_error"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindUnavailable  ErrorKind = "unavailable"
)

// Error carries the kind plus the entity it concerns, so callers always get
// a specific error kind and the identifying entity.
type Error struct {
	Kind   ErrorKind
	Entity string
	ID     string
	Msg    string
	cause  error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %s: %s", e.Kind, e.Entity, e.ID, e.Msg)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrorKind, entity, id, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(entity, id, format string, args ...any) *Error {
	return newError(KindValidation, entity, id, format, args...)
}

func Conflictf(entity, id, format string, args ...any) *Error {
	return newError(KindConflict, entity, id, format, args...)
}

func InvalidStatef(entity, id, format string, args ...any) *Error {
	return newError(KindInvalidState, entity, id, format, args...)
}

func Forbiddenf(entity, id, format string, args ...any) *Error {
	return newError(KindForbidden, entity, id, format, args...)
}

func NotFoundf(entity, id string) *Error {
	return newError(KindNotFound, entity, id, "not found")
}

// Unavailable wraps a transient storage or broker failure; retryable with backoff.
func Unavailable(entity string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Entity: entity, Msg: "temporarily unavailable", cause: cause}
}

// KindOf extracts the kind from any error in the chain. Unknown errors are
// reported as KindUnavailable so callers treat them as retryable transport
// failures rather than business outcomes.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnavailable
}

func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
