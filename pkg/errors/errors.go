// Package errors provides structured error types for the shardgraph library.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes follow the failure taxonomy of the graph engine:
//   - INVALID_ARGUMENT: malformed shapes, size mismatches, bad ids
//   - UNSUPPORTED_OPERATION: an operation applied to a graph kind that
//     does not support it (e.g. AddEdge on an immutable graph)
//   - PROTOCOL_ERROR: unknown message type or communicator scheme
//   - TRANSPORT_FAILURE: connect/send/wait failure on the wire
//
// Protocol and transport errors indicate deployment or programmer
// misconfiguration rather than transient conditions; the CLI escalates
// them to a fatal exit. Library code always returns them.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidArgument, "sizes sum to %d, want %d", sum, n)
//	if errors.Is(err, errors.ErrCodeInvalidArgument) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransportFailure, origErr, "connect to %s", addr)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Operation not supported by the graph kind it was applied to
	ErrCodeUnsupportedOp Code = "UNSUPPORTED_OPERATION"

	// Wire protocol violations (unknown message type, bad framing,
	// unknown communicator scheme)
	ErrCodeProtocol Code = "PROTOCOL_ERROR"

	// Transport-level failures (connect, send, wait)
	ErrCodeTransportFailure Code = "TRANSPORT_FAILURE"

	// Resource not found (vertex, edge, tensor name, partition id)
	ErrCodeNotFound Code = "NOT_FOUND"

	// Unexpected internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// It unwraps the error chain looking for an *Error with a matching code.
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
		return e.Message
	}
	return err.Error()
}
