// Package apperr defines the error taxonomy shared by every signing operation.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for reporting.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindMissingPrecondition Kind = "missing_precondition"
	KindExternalFailure     Kind = "external_failure"
	KindInternal            Kind = "internal"
)

// ErrSuperseded is returned when a render or flatten finished after a newer
// load or reset replaced the document it was working on.
var ErrSuperseded = errors.New("superseded by a newer document operation")

// Error is a user-reportable failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &apperr.Error{Kind: apperr.KindInvalidInput}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// UserMessage is the text shown to the user.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func InvalidInput(op, msg string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: msg}
}

func MissingPrecondition(op, msg string) *Error {
	return &Error{Kind: KindMissingPrecondition, Op: op, Message: msg}
}

// External wraps a collaborator failure (renderer, editor, storage).
func External(op, msg string, err error) *Error {
	return &Error{Kind: KindExternalFailure, Op: op, Message: msg, Err: err}
}

// KindOf reports the kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrSuperseded) {
		return KindMissingPrecondition
	}
	return KindInternal
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return err.Error()
}
