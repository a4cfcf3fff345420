package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an infrastructure failure detected while running a
// command. Domain rejections are location.Error values and never wrapped in
// a RuntimeError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// EntityID identifies the affected customer location.
	EntityID string

	// CommandID identifies the command being run, when one was assigned.
	CommandID string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeLoadFailed indicates the instance could not be rebuilt from the
	// log or its snapshot.
	ErrCodeLoadFailed RuntimeErrorCode = "LOAD_FAILED"

	// ErrCodeAppendFailed indicates the event log rejected or failed the
	// append. The outcome may be unknown; the instance has been dropped.
	ErrCodeAppendFailed RuntimeErrorCode = "APPEND_FAILED"

	// ErrCodeFoldFailed indicates appended events could not be folded.
	ErrCodeFoldFailed RuntimeErrorCode = "FOLD_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s (entity=%s", e.Code, e.Message, e.EntityID)
	if e.CommandID != "" {
		msg += ", command=" + e.CommandID
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsAppendError returns true if the error is an append failure.
// Uses errors.As to handle wrapped errors.
func IsAppendError(err error) bool {
	return hasRuntimeCode(err, ErrCodeAppendFailed)
}

// IsLoadError returns true if the error is a load failure.
func IsLoadError(err error) bool {
	return hasRuntimeCode(err, ErrCodeLoadFailed)
}

func hasRuntimeCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newLoadError(entityID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeLoadFailed,
		Message:  "failed to load instance",
		EntityID: entityID,
		Err:      err,
	}
}

func newAppendError(entityID, commandID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeAppendFailed,
		Message:   "failed to append events",
		EntityID:  entityID,
		CommandID: commandID,
		Err:       err,
	}
}

func newFoldError(entityID, commandID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeFoldFailed,
		Message:   "failed to fold appended events",
		EntityID:  entityID,
		CommandID: commandID,
		Err:       err,
	}
}
