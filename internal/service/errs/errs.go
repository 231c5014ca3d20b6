// Package errs defines the error model shared by services and transports.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	Unexpected Kind = iota
	NotFound
	InvalidArgument
	InvalidStatus
	InvalidCancellation
	Conflict
	Unauthorized
)

var kindNames = map[Kind]string{
	Unexpected:          "UNEXPECTED",
	NotFound:            "NOT_FOUND",
	InvalidArgument:     "INVALID_ARGUMENT",
	InvalidStatus:       "INVALID_STATUS",
	InvalidCancellation: "INVALID_CANCELLATION",
	Conflict:            "CONFLICT",
	Unauthorized:        "UNAUTHORIZED",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[Unexpected]
}

// Error is a classified service error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers can match with errors.Is(err, errs.E(errs.NotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// E creates an error of the given kind.
func E(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind that wraps err.
func Wrap(kind Kind, err error, message string) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, Unexpected for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Unexpected
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return "internal server error"
}
