package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeInternal       ErrorType = "internal"
)

// HealthBridgeError represents a structured error in the HealthBridge system
type HealthBridgeError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *HealthBridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *HealthBridgeError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error type to the HTTP status code handlers respond with
func (e *HealthBridgeError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeAuthorization:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AsHealthBridgeError extracts a *HealthBridgeError from an error chain, if present
func AsHealthBridgeError(err error) (*HealthBridgeError, bool) {
	var hbErr *HealthBridgeError
	if errors.As(err, &hbErr) {
		return hbErr, true
	}
	return nil, false
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *HealthBridgeError {
	return &HealthBridgeError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string) *HealthBridgeError {
	return &HealthBridgeError{
		Type:    ErrorTypeAuthentication,
		Code:    code,
		Message: message,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(code, message string) *HealthBridgeError {
	return &HealthBridgeError{
		Type:    ErrorTypeAuthorization,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *HealthBridgeError {
	return &HealthBridgeError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string) *HealthBridgeError {
	return &HealthBridgeError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(message string) *HealthBridgeError {
	return &HealthBridgeError{
		Type:    ErrorTypeRateLimit,
		Code:    ErrCodeRateLimitExceeded,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *HealthBridgeError {
	return &HealthBridgeError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenMalformed     = "TOKEN_MALFORMED"
	ErrCodeEmailExists        = "EMAIL_EXISTS"
	ErrCodePhoneExists        = "PHONE_EXISTS"
	ErrCodeRegistrationExists = "REGISTRATION_NUMBER_EXISTS"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)
