// Package errors carries the service's typed error values. Every error that
// leaves the service layer is an *AppError with a stable code, so transports
// can map it without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable, machine-readable reason code.
type ErrorCode string

const (
	ErrCodeDuplicateCaseID      ErrorCode = "DUPLICATE_CASE_ID"
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeUnauthenticated      ErrorCode = "UNAUTHENTICATED"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeConflict             ErrorCode = "CONFLICT"
	ErrCodeStorageUnavailable   ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeInternal             ErrorCode = "INTERNAL"
)

// AppError is the error type returned across package boundaries.
type AppError struct {
	Code    ErrorCode
	Message string
	Field   string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail attaches a key/value pair and returns the same error.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps err with a code and message. An err that is already an
// *AppError keeps its own code unless it is INTERNAL.
func Wrap(err error, code ErrorCode, message string) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != ErrCodeInternal {
		return appErr
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// InvalidInput reports a malformed field value.
func InvalidInput(field, message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message, Field: field}
}

// MissingField reports a required field left empty.
func MissingField(field string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
	}
}

// Unavailable reports a transient storage failure.
func Unavailable(err error, message string) *AppError {
	return &AppError{Code: ErrCodeStorageUnavailable, Message: message, Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, or INTERNAL.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// As is re-exported so callers need only one errors import.
func As(err error, target any) bool { return stderrors.As(err, target) }

// HTTPStatus maps an error code to the response status used by the HTTP API.
// A transition the actor may not take and a transition that does not exist
// share a status; only the code tells them apart.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingRequiredField, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidTransition, ErrCodeUnauthorized:
		return http.StatusUnprocessableEntity
	case ErrCodeDuplicateCaseID, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
