package model

import (
	"errors"
	"fmt"
)

// Error kinds surfaced across the engine boundary. Match with errors.Is.
var (
	ErrUnknownComponent        = errors.New("unknown component")
	ErrLocationDataUnavailable = errors.New("location data unavailable")
	ErrInvalidInput            = errors.New("invalid input")
)

// Error carries a kind plus the operation that produced it.
type Error struct {
	Kind      error  // one of the Err* sentinels above
	Op        string // e.g. "lookup_component", "resolve_location"
	Message   string // user-facing text
	Retryable bool   // true for LocationDataUnavailable
	Err       error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func UnknownComponent(op, format string, args ...any) error {
	return &Error{Kind: ErrUnknownComponent, Op: op, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(op, format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Op: op, Message: fmt.Sprintf(format, args...)}
}

// LocationDataUnavailable wraps cause (may be nil). A different coordinate may succeed,
// so these are always flagged retryable.
func LocationDataUnavailable(op string, cause error, format string, args ...any) error {
	return &Error{
		Kind:      ErrLocationDataUnavailable,
		Op:        op,
		Message:   fmt.Sprintf(format, args...),
		Retryable: true,
		Err:       cause,
	}
}

// IsRetryable reports whether err carries a retryable engine error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
