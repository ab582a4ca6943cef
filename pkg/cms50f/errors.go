package cms50f

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the device could not be opened.
	ErrUnavailable = errors.New("device unavailable")
	// ErrInvalidHandle indicates the device handle is nil, closed or busy.
	ErrInvalidHandle = errors.New("invalid device handle")
	// ErrConfigFailed indicates the serial link could not be configured.
	ErrConfigFailed = errors.New("tty config could not be configured")
	// ErrWriteFailed indicates a command could not be written.
	ErrWriteFailed = errors.New("error writing to device")
	// ErrReadFailed indicates a response could not be read.
	ErrReadFailed = errors.New("read from device failed")
	// ErrCloseFailed indicates the device could not be closed.
	ErrCloseFailed = errors.New("error closing device")
	// ErrUnexpectedResponse indicates protocol desynchronization.
	// The session can't be recovered without reconnecting the device.
	ErrUnexpectedResponse = errors.New("unexpected answer from device, try reconnecting")
	// ErrInvalidTimestamp indicates the device reported an impossible start time.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrIncompleteStream indicates the sample stream ended before the target count.
	ErrIncompleteStream = errors.New("incomplete stream")
)

// OpError wraps a failure of an operation on a device with its kind.
type OpError struct {
	Op     string
	Device string
	Kind   error
	Err    error
}

// Error implements error.
func (e *OpError) Error() string {
	msg := e.Op
	if e.Device != "" {
		msg += " " + e.Device
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OpError) Unwrap() error {
	return e.Err
}

// Is matches the error kind.
func (e *OpError) Is(target error) bool {
	return target == e.Kind
}

// UnexpectedResponseError reports a response code mismatch.
type UnexpectedResponseError struct {
	Expected Response
	Got      byte
	Offset   int
}

// Error implements error.
func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("%v: expected %v at byte %d, got <%02x>",
		ErrUnexpectedResponse, e.Expected, e.Offset, e.Got)
}

// Is implements errors.Is.
func (e *UnexpectedResponseError) Is(target error) bool {
	return target == ErrUnexpectedResponse
}

// IncompleteStreamError reports the sample stream ending early.
type IncompleteStreamError struct {
	Expected int
	Received int
}

// Error implements error.
func (e *IncompleteStreamError) Error() string {
	return fmt.Sprintf("%v: %d values expected, %d values downloaded",
		ErrIncompleteStream, e.Expected, e.Received)
}

// Is implements errors.Is.
func (e *IncompleteStreamError) Is(target error) bool {
	return target == ErrIncompleteStream
}

// NeedsReconnect tells if the error leaves the device desynchronized.
func NeedsReconnect(err error) bool {
	return errors.Is(err, ErrUnexpectedResponse)
}
