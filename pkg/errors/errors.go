package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing state
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeRateLimited indicates the entity API throttled the request
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"

	// ErrorTypeNetwork indicates the entity API could not be reached
	ErrorTypeNetwork ErrorType = "NETWORK"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewRateLimitedError creates an error for a throttled entity API call
func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewNetworkError creates an error for a failed transport round trip
func NewNetworkError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeNetwork,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// FromStatus maps an entity API response status to an AppError.
func FromStatus(status int, message string) *AppError {
	var appErr *AppError
	switch {
	case status == http.StatusTooManyRequests:
		appErr = NewRateLimitedError(message)
	case status == http.StatusNotFound:
		appErr = NewNotFoundError(message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		appErr = NewValidationError(message)
	case status == http.StatusConflict:
		appErr = NewConflictError(message)
	default:
		appErr = NewExternalError(message, nil)
	}
	appErr.StatusCode = status
	return appErr
}

// TypeOf returns the ErrorType carried by err, or "" when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsRateLimited reports whether err signals throttling: an HTTP 429 status or a
// message mentioning "429" or "rate limit".
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Type == ErrorTypeRateLimited || appErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	return TypeOf(err) == ErrorTypeNetwork
}

// IsRetryable reports whether a failed list call should be retried with backoff.
// Rate limiting and transient network failures share the same policy.
func IsRetryable(err error) bool {
	return IsRateLimited(err) || IsNetwork(err)
}
