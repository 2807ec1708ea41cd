package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Custom error types for the OCR service
 *
 * Every failure surfaced to a caller carries a stable machine-checkable
 * category plus a human message; stack traces are diagnostic-only.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Request errors
	ErrorValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrorNotFound         ErrorCode = "NOT_FOUND"

	// Processing errors
	ErrorOCRFailed    ErrorCode = "OCR_FAILED"
	ErrorExportFailed ErrorCode = "EXPORT_FAILED"

	// Storage errors
	ErrorDatabaseFailed ErrorCode = "DATABASE_FAILED"
)

// ServiceError represents a structured service error
type ServiceError struct {
	Code      ErrorCode
	Message   string
	RecordID  string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the machine-checkable category from any error. Errors
// without a ServiceError in their chain have no category and yield "".
func CodeOf(err error) ErrorCode {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotFound reports whether err carries the NOT_FOUND category.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrorNotFound
}

// Factory functions for common errors

func NewValidationError(message string) *ServiceError {
	return &ServiceError{
		Code:      ErrorValidationFailed,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Code:      ErrorUnauthorized,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewNotFoundError reports a record as not found. The same message is used
// whether the record does not exist or belongs to another user, so existence
// is never leaked to non-owners.
func NewNotFoundError(recordID string) *ServiceError {
	return &ServiceError{
		Code:      ErrorNotFound,
		Message:   "Record not found",
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func NewOCRFailedError(recordID string, cause error) *ServiceError {
	return &ServiceError{
		Code:      ErrorOCRFailed,
		Message:   "OCR recognition failed",
		RecordID:  recordID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewExportFailedError(recordID string, format string, cause error) *ServiceError {
	return &ServiceError{
		Code:      ErrorExportFailed,
		Message:   fmt.Sprintf("Export to %s failed", format),
		RecordID:  recordID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"format": format,
		},
		Cause: cause,
	}
}

func NewDatabaseError(message string, cause error) *ServiceError {
	return &ServiceError{
		Code:      ErrorDatabaseFailed,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ToMap converts error to map for logging and API responses
func (e *ServiceError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
