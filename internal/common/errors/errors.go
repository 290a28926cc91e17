// Package errors provides standardized error handling for the sync bridge.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Request-side errors, rejected before the sync runs.
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuthenticationError ErrorCode = "AUTHENTICATION_ERROR"

	// Catalog (ServiceNow) errors.
	ErrCodeCatalogRequestFailed ErrorCode = "CATALOG_REQUEST_FAILED"
	ErrCodeApplicationNotFound  ErrorCode = "APPLICATION_NOT_FOUND"

	// Registry (Onspring) errors.
	ErrCodeRegistryQueryFailed ErrorCode = "REGISTRY_QUERY_FAILED"
	ErrCodeRecordCreateFailed  ErrorCode = "RECORD_CREATE_FAILED"

	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable credential error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationError,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogRequestFailedError creates a retryable catalog transport error.
func NewCatalogRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogRequestFailed,
		Message:   "ServiceNow request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationNotFoundError creates a non-retryable not-found error for an
// application name that matched nothing in the catalog.
func NewApplicationNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found in ServiceNow",
		Details:   fmt.Sprintf("appName: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryQueryFailedError creates a retryable registry query error.
func NewRegistryQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryQueryFailed,
		Message:   "Onspring record query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordCreateFailedError creates a non-retryable record create error.
// Creates are never retried: the call is not idempotent and a blind retry
// can leave a duplicate person record behind.
func NewRecordCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordCreateFailed,
		Message:   "Onspring record create failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps an error to the status code the API surfaces. Upstream
// failures are not distinguished from one another: catalog down, registry
// down and application-not-found all surface as 500.
func HTTPStatus(err error) int {
	stdErr, ok := err.(*StandardError)
	if !ok {
		return http.StatusInternalServerError
	}

	switch stdErr.Code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeAuthenticationError:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
