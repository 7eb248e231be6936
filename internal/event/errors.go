package event

import (
	"errors"
	"fmt"
)

// Code categorizes event failures.
type Code string

const (
	// CodeResolution indicates a message field referenced a stash key that
	// was never written in this path.
	CodeResolution Code = "RESOLUTION"

	// CodeUnexpectedMsg indicates the next non-ignored inbound message did
	// not match an expectation pattern, or its predicate rejected it.
	CodeUnexpectedMsg Code = "UNEXPECTED_MSG"

	// CodeTimeout indicates no message arrived within the receive bound.
	CodeTimeout Code = "TIMEOUT"

	// CodeUnexpectedError indicates the node signaled a protocol error when
	// none was expected, or the final drain found a leftover error.
	CodeUnexpectedError Code = "UNEXPECTED_ERROR"

	// CodeCheckFailed indicates a CheckEq comparison failed.
	CodeCheckFailed Code = "CHECK_FAILED"

	// CodeSpec indicates the test itself is malformed (unknown message
	// type, unknown connection, TryAll reached at runtime).
	CodeSpec Code = "SPEC_FILE"
)

// Error is a failed event. It carries the authored intent (Expected)
// against the observed reality (Received) so a failure can be located
// without re-running the path.
type Error struct {
	Code     Code
	Event    string // String() of the failing event
	Expected string
	Received string
	Message  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Code, e.Event)
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Expected != "" || e.Received != "" {
		s += fmt.Sprintf(" (expected %s, received %s)", orNone(e.Expected), orNone(e.Received))
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

// NewResolutionError reports a stash key that was never written.
func NewResolutionError(event, key string) *Error {
	return &Error{
		Code:    CodeResolution,
		Event:   event,
		Message: fmt.Sprintf("unknown stash key %q", key),
	}
}

// NewUnexpectedMsg reports a pattern mismatch, carrying both sides.
func NewUnexpectedMsg(event, expected, received string) *Error {
	return &Error{
		Code:     CodeUnexpectedMsg,
		Event:    event,
		Expected: expected,
		Received: received,
	}
}

// NewTimeoutError reports that no message arrived within the bound.
func NewTimeoutError(event string) *Error {
	return &Error{
		Code:    CodeTimeout,
		Event:   event,
		Message: "no message within receive timeout",
	}
}

// NewUnexpectedError reports a node error no event anticipated.
func NewUnexpectedError(event, diagnostic string) *Error {
	return &Error{
		Code:     CodeUnexpectedError,
		Event:    event,
		Received: diagnostic,
	}
}

// NewCheckFailed reports a failed equality check.
func NewCheckFailed(event, expected, got string) *Error {
	return &Error{
		Code:     CodeCheckFailed,
		Event:    event,
		Expected: expected,
		Received: got,
	}
}

// NewSpecError reports a malformed test.
func NewSpecError(event, message string) *Error {
	return &Error{
		Code:    CodeSpec,
		Event:   event,
		Message: message,
	}
}

// CodeOf extracts the failure code from an error chain.
// Returns "" if the error is not an event failure.
func CodeOf(err error) Code {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsTimeout reports whether the error is a receive timeout.
func IsTimeout(err error) bool { return CodeOf(err) == CodeTimeout }

// IsUnexpectedMsg reports whether the error is a pattern mismatch.
func IsUnexpectedMsg(err error) bool { return CodeOf(err) == CodeUnexpectedMsg }

// IsResolution reports whether the error is a stash resolution failure.
func IsResolution(err error) bool { return CodeOf(err) == CodeResolution }

// IsUnexpectedError reports whether the error is an unanticipated node error.
func IsUnexpectedError(err error) bool { return CodeOf(err) == CodeUnexpectedError }
