package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so transports can map them to structured
// replies without inspecting messages.
type ErrorKind string

const (
	KindValidation     ErrorKind = "VALIDATION"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindConflict       ErrorKind = "CONFLICT"
	KindForbidden      ErrorKind = "FORBIDDEN"
	KindInvalidState   ErrorKind = "INVALID_STATE"
	KindNoAvailability ErrorKind = "NO_AVAILABILITY"
	KindTooEarly       ErrorKind = "TOO_EARLY"
	KindTooLate        ErrorKind = "TOO_LATE"
	KindUnknownCommand ErrorKind = "UNKNOWN_COMMAND"
	KindPersistence    ErrorKind = "PERSISTENCE"
)

// Error is the structured error the engine returns to callers: a kind plus a
// human message. Persistence errors additionally wrap the driver error.
type Error struct {
	Kind    ErrorKind
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

// Errf builds a structured Error with a formatted message.
func Errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapPersistence marks a write-through failure. The in-memory state is already
// applied, so callers surface it as a warning rather than rolling back.
func WrapPersistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: "write-through failed during " + op, Err: err}
}

// KindOf extracts the ErrorKind from err, or an empty kind for plain errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
