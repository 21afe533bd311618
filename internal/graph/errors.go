package graph

import (
	"errors"
	"fmt"
)

// ElementError is a typed, recoverable failure of a mutation.
// Callers branch on Code; the identity and label of the offending element
// are carried for diagnostics and retry decisions.
type ElementError struct {
	// Code identifies the failure category.
	Code ElementErrorCode

	// Kind is the kind of the element being written.
	Kind Kind

	// ID is the identity of the element, when one was assigned.
	ID string

	// Label is the element label, when known.
	Label string

	// Err is the underlying backend error, if any.
	Err error
}

// ElementErrorCode categorizes element errors.
type ElementErrorCode string

const (
	// ErrCodeAlreadyExists means a create collided with an existing identity.
	ErrCodeAlreadyExists ElementErrorCode = "ALREADY_EXISTS"

	// ErrCodeUnroutable means no schema accepted the element.
	ErrCodeUnroutable ElementErrorCode = "UNROUTABLE"

	// ErrCodeInvalidElement means the element could not be serialized,
	// for example a required field was missing.
	ErrCodeInvalidElement ElementErrorCode = "INVALID_ELEMENT"
)

// Error implements the error interface.
func (e *ElementError) Error() string {
	var msg string
	switch e.Code {
	case ErrCodeAlreadyExists:
		msg = fmt.Sprintf("%s: %s with id %q already exists", e.Code, e.Kind, e.ID)
	case ErrCodeUnroutable:
		msg = fmt.Sprintf("%s: no schema accepts %s with label %q", e.Code, e.Kind, e.Label)
	default:
		msg = fmt.Sprintf("%s: %s %q", e.Code, e.Kind, e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying backend error.
func (e *ElementError) Unwrap() error {
	return e.Err
}

// NewAlreadyExistsError reports a duplicate identity on create.
func NewAlreadyExistsError(kind Kind, id, label string, cause error) *ElementError {
	return &ElementError{Code: ErrCodeAlreadyExists, Kind: kind, ID: id, Label: label, Err: cause}
}

// NewUnroutableError reports that no schema accepted the element.
func NewUnroutableError(kind Kind, id, label string) *ElementError {
	return &ElementError{Code: ErrCodeUnroutable, Kind: kind, ID: id, Label: label}
}

// NewInvalidElementError reports an element a schema could not serialize.
func NewInvalidElementError(kind Kind, id, label string, cause error) *ElementError {
	return &ElementError{Code: ErrCodeInvalidElement, Kind: kind, ID: id, Label: label, Err: cause}
}

// IsAlreadyExists returns true if err is an ALREADY_EXISTS element error.
// Uses errors.As to handle wrapped errors.
func IsAlreadyExists(err error) bool {
	return hasCode(err, ErrCodeAlreadyExists)
}

// IsUnroutable returns true if err is an UNROUTABLE element error.
func IsUnroutable(err error) bool {
	return hasCode(err, ErrCodeUnroutable)
}

// IsInvalidElement returns true if err is an INVALID_ELEMENT element error.
func IsInvalidElement(err error) bool {
	return hasCode(err, ErrCodeInvalidElement)
}

func hasCode(err error, code ElementErrorCode) bool {
	var ee *ElementError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
