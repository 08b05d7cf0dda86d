// Package apperrors defines the error taxonomy shared by the
// orchestration services. All of these are synchronous failures
// returned before any state change; asynchronous collaborator failures
// surface only through entity status fields.
package apperrors

import "fmt"

// ValidationError rejects malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PreconditionError rejects an operation invalid for the entity's
// current state, e.g. burning subtitles before generating them.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

func Precondition(format string, args ...any) *PreconditionError {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError rejects an operation that would violate a cross-entity
// invariant, e.g. deleting a job with pending scheduled posts.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// TransientDispatchError signals that a collaborator could not be
// reached when dispatching work. The message is retained for display.
type TransientDispatchError struct {
	Msg string
	Err error
}

func (e *TransientDispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *TransientDispatchError) Unwrap() error { return e.Err }

func Dispatch(err error, format string, args ...any) *TransientDispatchError {
	return &TransientDispatchError{Msg: fmt.Sprintf(format, args...), Err: err}
}
