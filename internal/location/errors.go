package location

import (
	"errors"
	"fmt"
)

// Code classifies a rejected command or query.
type Code string

const (
	// CodeAlreadyExists: Add on a location that is already added.
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// CodeNotFound: the location is not added, or the referenced device is
	// absent.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidArgument: the command is malformed.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Messages returned to callers. They are part of the external contract and
// must be preserved verbatim.
const (
	MsgLocationNotFound      = "customerLocation does not exist."
	MsgLocationAlreadyExists = "customerLocation already exists."
	MsgDeviceNotFound        = "device does not exist."
)

// Error is a domain rejection. No event is emitted when Decide returns one.
type Error struct {
	Code               Code
	Message            string
	CustomerLocationID string
	DeviceID           string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, &location.Error{Code: location.CodeNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newNotFound(locationID, deviceID, msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg, CustomerLocationID: locationID, DeviceID: deviceID}
}

// NewLocationNotFound returns the rejection for commands and queries that
// address a location that has not been added.
func NewLocationNotFound(locationID string) *Error {
	return newNotFound(locationID, "", MsgLocationNotFound)
}

// NewInvalidArgument returns an InvalidArgument rejection.
func NewInvalidArgument(locationID, msg string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: msg, CustomerLocationID: locationID}
}

// AsError extracts a domain error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound reports whether err is a NotFound rejection.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsAlreadyExists reports whether err is an AlreadyExists rejection.
func IsAlreadyExists(err error) bool {
	return hasCode(err, CodeAlreadyExists)
}

// IsInvalidArgument reports whether err is an InvalidArgument rejection.
func IsInvalidArgument(err error) bool {
	return hasCode(err, CodeInvalidArgument)
}

func hasCode(err error, code Code) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
