// Package errors defines the service error type used to map failures to
// user-facing messages and HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	CodeValidation   Code = "VALIDATION_FAILED"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeDatabase     Code = "DATABASE_ERROR"
	CodeRateLimited  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// ServiceError carries a user-facing message alongside the underlying cause.
// Message is always safe to return to the client; the cause is logged only.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	// Fields holds per-field validation messages keyed by form field name.
	Fields  map[string][]string
	Details map[string]interface{}
	cause   error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a diagnostic detail and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Validation builds a 422 error with per-field messages.
func Validation(message string, fields map[string][]string) *ServiceError {
	return &ServiceError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Fields:     fields,
	}
}

// Unauthorized builds a 401 error.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// NotFound builds a 404 error.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Database wraps a storage failure with a user-facing message.
func Database(message string, cause error) *ServiceError {
	return &ServiceError{Code: CodeDatabase, Message: message, HTTPStatus: http.StatusInternalServerError, cause: cause}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, cause: cause}
}

// RateLimitExceeded builds a 429 error.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := &ServiceError{
		Code:       CodeRateLimited,
		Message:    "Too many requests.",
		HTTPStatus: http.StatusTooManyRequests,
	}
	return e.WithDetails("limit", limit).WithDetails("window", window)
}

// GetServiceError extracts a *ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}
