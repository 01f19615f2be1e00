package common

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorCode represents different types of application errors
type ErrorCode string

const (
	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	// Exercise errors
	ErrCodeUnknownExercise ErrorCode = "UNKNOWN_EXERCISE"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidFormat    ErrorCode = "INVALID_FORMAT"

	// Persistence errors
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"

	// External service errors
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE"
)

// Process exit statuses returned by the CLI.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitValidation = 3
	ExitIO         = 4
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
	Stack   string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ExitCode maps the error code to a process exit status
func (e *AppError) ExitCode() int {
	return getExitCode(e.Code)
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   getStackTrace(),
	}
}

// NewAppErrorWithDetails creates a new application error with details
func NewAppErrorWithDetails(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Stack:   getStackTrace(),
	}
}

// NewAppErrorWithCause creates a new application error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Stack:   getStackTrace(),
	}
}

// WrapError wraps an existing error with application error context
func WrapError(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve it
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   getStackTrace(),
	}
}

// getExitCode maps error codes to process exit statuses
func getExitCode(code ErrorCode) int {
	switch code {
	case ErrCodeUnknownExercise, ErrCodeInvalidInput, ErrCodeNotFound:
		return ExitUsage
	case ErrCodeValidationFailed, ErrCodeInvalidFormat:
		return ExitValidation
	case ErrCodeStorage, ErrCodeExternalService:
		return ExitIO
	default:
		return ExitFailure
	}
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, 2*len(buf))
	}
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasErrorCode checks if the error has a specific error code
func HasErrorCode(err error, code ErrorCode) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// ExitCodeOf returns the exit status for any error, ExitOK for nil
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.ExitCode()
	}
	return ExitFailure
}

// Common error constructors for frequently used errors

// ErrUnknownExercise creates an unknown exercise error
func ErrUnknownExercise(id string) *AppError {
	return NewAppErrorWithDetails(ErrCodeUnknownExercise, "unknown exercise", id).
		WithContext("exercise", id)
}

// ErrInvalidInput creates an invalid input error
func ErrInvalidInput(field string) *AppError {
	return NewAppError(ErrCodeInvalidInput, fmt.Sprintf("invalid input for field: %s", field))
}

// ErrValidationFailed creates a validation failed error
func ErrValidationFailed(details string) *AppError {
	return NewAppErrorWithDetails(ErrCodeValidationFailed, "validation failed", details)
}

// ErrStorage creates a storage error
func ErrStorage(operation string, cause error) *AppError {
	return NewAppErrorWithCause(ErrCodeStorage, fmt.Sprintf("storage %s failed", operation), cause)
}

// ErrExternalService creates an external service error
func ErrExternalService(service string, cause error) *AppError {
	return NewAppErrorWithCause(ErrCodeExternalService,
		fmt.Sprintf("external service error: %s", service), cause)
}

// ValidationError represents a single failed check
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}

	return fmt.Sprintf("validation failed with %d errors", len(ve))
}

// ToAppError converts ValidationErrors to AppError
func (ve ValidationErrors) ToAppError() *AppError {
	if len(ve) == 0 {
		return nil
	}

	appErr := NewAppErrorWithDetails(ErrCodeValidationFailed, "validation failed", ve.Error())
	appErr.WithContext("validation_errors", ve)

	return appErr
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) {
	*ve = append(*ve, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// HasErrors returns true if there are validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}
