// Package errors provides structured error types for dialoguegraph.
//
// Every failure raised by the graph model, the editor controller and the
// serializer carries a machine-readable [Code], so callers can tell an
// invariant violation apart from malformed saved data without string matching.
//
// # Error Codes
//
//   - NOT_FOUND: lookup of a node, edge or view that does not exist. These are
//     invariant violations and abort the offending operation.
//   - OCCUPIED_SLOT: connection to an output, option or input slot that already
//     carries an edge. Rejected before the graph is touched.
//   - INVALID_EDGE: connection between unknown nodes or incompatible slots.
//   - UNKNOWN_REFERENCE: saved data referencing a nonexistent node or option.
//   - INVALID_FORMAT: saved data that cannot be decoded.
//   - IMMUTABLE_NODE: editor policy refusing to remove or duplicate START.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeOccupiedSlot, "input of node %d is occupied", id)
//	if errors.Is(err, errors.ErrCodeOccupiedSlot) {
//	    // nothing was mutated
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph structure errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeOccupiedSlot     Code = "OCCUPIED_SLOT"
	ErrCodeInvalidEdge      Code = "INVALID_EDGE"
	ErrCodeImmutableNode    Code = "IMMUTABLE_NODE"
	ErrCodeUnknownReference Code = "UNKNOWN_REFERENCE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Persistence errors
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost *Error in the chain is consulted, so a wrapping error
// decides the classification.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
