// Package errors provides structured error types for familygrid.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into a few families:
//   - INVALID_*: Input validation failures (bad ids, keys, files)
//   - *_NOT_FOUND: Missing stored trees
//   - CONFIGURATION_ERROR, LOOKUP_ERROR: layout invariant violations
//   - INCONSISTENT_TREE, VERSION_CONFLICT: snapshot integrity failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPersonID, "unknown person %s", pid)
//	if errors.Is(err, errors.ErrCodeInvalidPersonID) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "save tree %s", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput          Code = "INVALID_INPUT"
	ErrCodeInvalidFormat         Code = "INVALID_FORMAT"
	ErrCodeInvalidPath           Code = "INVALID_PATH"
	ErrCodeInvalidTreeID         Code = "INVALID_TREE_ID"
	ErrCodeInvalidPersonID       Code = "INVALID_PERSON_ID"
	ErrCodeInvalidRelationshipID Code = "INVALID_RELATIONSHIP_ID"
	ErrCodeInvalidKey            Code = "INVALID_KEY"
	ErrCodeInvalidLayers         Code = "INVALID_LAYERS"
	ErrCodeNoInfo                Code = "NO_INFO"
	ErrCodeAlreadyTwoParents     Code = "ALREADY_TWO_PARENTS"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeTreeNotFound Code = "TREE_NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Snapshot integrity errors
	ErrCodeInconsistentTree Code = "INCONSISTENT_TREE"
	ErrCodeVersionConflict  Code = "VERSION_CONFLICT"

	// Layout invariant violations. Both abort the current build.
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"
	ErrCodeLookup        Code = "LOOKUP_ERROR"

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

// IsInvariantViolation reports whether err is one of the layout failures
// that indicate inconsistent upstream data rather than bad user input.
func IsInvariantViolation(err error) bool {
	switch GetCode(err) {
	case ErrCodeConfiguration, ErrCodeLookup:
		return true
	}
	return false
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidPath,
		ErrCodeInvalidTreeID, ErrCodeInvalidKey, ErrCodeNoInfo,
		ErrCodeAlreadyTwoParents, ErrCodeInvalidLayers:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeTreeNotFound, ErrCodeFileNotFound,
		ErrCodeInvalidPersonID, ErrCodeInvalidRelationshipID:
		return http.StatusNotFound
	case ErrCodeVersionConflict:
		return http.StatusConflict
	case ErrCodeInconsistentTree:
		return http.StatusUnprocessableEntity
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
