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

	// ErrorTypeValidation indicates user-correctable input errors
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeUnauthorized indicates a shared-secret mismatch
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeConfiguration indicates missing or malformed static data
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeSerialization indicates a single record could not be encoded or decoded
	ErrorTypeSerialization ErrorType = "SERIALIZATION"

	// ErrorTypeModelInference indicates the text classifier failed
	ErrorTypeModelInference ErrorType = "MODEL_INFERENCE"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// Details carries every violated constraint of a validation error.
	Details []string

	// Transient marks inference failures worth retrying (resource exhaustion, timeouts).
	Transient bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a validation error aggregating all violations
func NewValidationError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: details,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewSerializationError creates a new serialization error
func NewSerializationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeSerialization,
		Message: message,
		Err:     err,
	}
}

// NewModelInferenceError creates a new model inference error
func NewModelInferenceError(message string, err error, transient bool) *AppError {
	return &AppError{
		Type:      ErrorTypeModelInference,
		Message:   message,
		Err:       err,
		Transient: transient,
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

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// IsTransient reports whether err is a retryable inference failure.
func IsTransient(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == ErrorTypeModelInference && appErr.Transient
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypeUnauthorized:
		return http.StatusForbidden
	case ErrorTypeModelInference:
		if appErr.Transient {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
