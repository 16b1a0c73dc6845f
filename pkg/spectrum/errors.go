package spectrum

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies one engine failure for machine handling.
type ErrorCode string

const (
	// ErrorCodeNetwork indicates a transport-level fetch failure.
	ErrorCodeNetwork ErrorCode = "network_error"
	// ErrorCodeContentExtraction indicates article text could not be extracted.
	ErrorCodeContentExtraction ErrorCode = "content_extraction"
	// ErrorCodeBlockedSource indicates the source refuses automated access.
	ErrorCodeBlockedSource ErrorCode = "blocked_source"
	// ErrorCodeAIProvider indicates an upstream AI provider failure.
	ErrorCodeAIProvider ErrorCode = "ai_provider"
	// ErrorCodeValidation indicates caller input violates an operation contract.
	ErrorCodeValidation ErrorCode = "validation"
	// ErrorCodeInternal indicates an unexpected engine-side failure.
	ErrorCodeInternal ErrorCode = "internal_error"
)

// retryableByDefault lists codes whose failures may succeed on retry.
var retryableByDefault = map[ErrorCode]bool{
	ErrorCodeNetwork:    true,
	ErrorCodeAIProvider: true,
}

// Error carries structured metadata for one engine operation failure.
//
// Callers use Code for machine handling, Message for operator display, and
// Retryable to decide whether offering a retry action makes sense.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode
	// Message is one human-readable failure summary.
	Message string
	// Retryable reports whether the same call may succeed if repeated.
	Retryable bool
	// Cause is the wrapped transport/provider error when known.
	Cause error
}

// NewError builds one structured error with the default retry classification
// for its code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: retryableByDefault[code],
	}
}

// WrapError builds one structured error around a root cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	wrapped := NewError(code, message)
	wrapped.Cause = cause

	return wrapped
}

// Error returns one operator-readable failure summary.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	fields := make([]string, 0, 2)
	if code := strings.TrimSpace(string(e.Code)); code != "" {
		fields = append(fields, "code="+code)
	}
	if e.Retryable {
		fields = append(fields, "retryable=true")
	}

	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "spectrum error"
	}
	if len(fields) > 0 {
		message = message + " (" + strings.Join(fields, " ") + ")"
	}
	if e.Cause == nil {
		return message
	}

	return message + ": " + e.Cause.Error()
}

// Unwrap returns the wrapped root cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Cause
}

// AsError extracts one structured Error from wrapped error chains.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}

	var structured *Error
	if errors.As(err, &structured) && structured != nil {
		return structured, true
	}

	return nil, false
}

// IsRetryable reports whether an error chain carries a retryable failure.
//
// Errors outside the structured taxonomy are treated as non-retryable so a
// programming mistake never loops through a retry schedule.
func IsRetryable(err error) bool {
	structured, ok := AsError(err)
	if !ok {
		return false
	}

	return structured.Retryable
}

// CodeOf returns the structured code for an error chain, or ErrorCodeInternal
// when the chain carries no structured error.
func CodeOf(err error) ErrorCode {
	structured, ok := AsError(err)
	if !ok {
		return ErrorCodeInternal
	}

	return structured.Code
}

// Validatef builds one validation error from a format string.
func Validatef(format string, args ...any) *Error {
	return NewError(ErrorCodeValidation, fmt.Sprintf(format, args...))
}
