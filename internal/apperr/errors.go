// Package apperr classifies failures so the HTTP layer can translate them
// into status codes without knowing which component produced them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the failure class of an Error.
type Kind int

const (
	// KindInternal is used for errors that were never classified.
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindUpstream
	KindPersistence
	// KindPartialFailure means a multi-step operation stopped half way and
	// the system may be left in an intermediate state.
	KindPartialFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	case KindPartialFailure:
		return "partial_failure"
	default:
		return "internal"
	}
}

// Error is a classified error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func Validation(err error, format string, args ...any) *Error {
	return newError(KindValidation, err, format, args...)
}

func Upstream(err error, format string, args ...any) *Error {
	return newError(KindUpstream, err, format, args...)
}

func Persistence(err error, format string, args ...any) *Error {
	return newError(KindPersistence, err, format, args...)
}

func PartialFailure(err error, format string, args ...any) *Error {
	return newError(KindPartialFailure, err, format, args...)
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the message of the outermost *Error, falling back to the
// error text for unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
