// Package errors provides structured error types for d3fig.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the scene builder, pipeline and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The scene-building contract raises three kinds of errors, all synchronously
// at the call that violates it:
//   - SHAPE_ERROR: malformed or mismatched array dimensions
//   - PROTOCOL_ERROR: a scope operation issued in the wrong builder state
//   - VALUE_ERROR: an invalid enumerated option (alignment, coordinates, codes)
//
// The remaining codes follow the hierarchical convention used by the
// infrastructure packages (cache, store, CLI):
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Resource not found
//   - NETWORK_ERROR / TIMEOUT: backend connectivity
//   - INTERNAL_ERROR / UNSUPPORTED: unexpected failures
//
// # Usage
//
//	err := errors.Shape("points must have 2 columns, got %d", n)
//	if errors.IsShape(err) {
//	    // abort the current figure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to reach %s", addr)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Scene-building contract errors
	ErrCodeShape    Code = "SHAPE_ERROR"
	ErrCodeProtocol Code = "PROTOCOL_ERROR"
	ErrCodeValue    Code = "VALUE_ERROR"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// Shape creates a SHAPE_ERROR.
func Shape(format string, args ...any) *Error {
	return New(ErrCodeShape, format, args...)
}

// Protocol creates a PROTOCOL_ERROR naming the operation and the expected
// versus actual state.
func Protocol(op string, expected, actual fmt.Stringer) *Error {
	return New(ErrCodeProtocol, "%s: expected state %s, got %s", op, expected, actual)
}

// Value creates a VALUE_ERROR.
func Value(format string, args ...any) *Error {
	return New(ErrCodeValue, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsShape reports whether err is a SHAPE_ERROR.
func IsShape(err error) bool { return Is(err, ErrCodeShape) }

// IsProtocol reports whether err is a PROTOCOL_ERROR.
func IsProtocol(err error) bool { return Is(err, ErrCodeProtocol) }

// IsValue reports whether err is a VALUE_ERROR.
func IsValue(err error) bool { return Is(err, ErrCodeValue) }

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
		return e.Message
	}
	return err.Error()
}
