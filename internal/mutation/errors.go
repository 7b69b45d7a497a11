package mutation

import (
	"errors"
	"fmt"
)

// Kind categorizes a failed transition.
type Kind string

const (
	// KindValidation marks a request that can never succeed as submitted.
	KindValidation Kind = "validation"

	// KindNotFound marks a missing post, comment or user.
	KindNotFound Kind = "not_found"

	// KindStore marks a failure inside the document store.
	KindStore Kind = "store"
)

// Error is the typed failure returned by every transition.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op names the transition that failed, e.g. "toggle-like".
	Op string

	// Message is a human-readable description safe to send to clients.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindStore {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func notFoundError(op, msg string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg, Err: err}
}

func storeError(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Message: "store failure", Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation returns true if err is a validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound returns true if err is a not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsStore returns true if err is a store failure.
func IsStore(err error) bool {
	return KindOf(err) == KindStore
}
