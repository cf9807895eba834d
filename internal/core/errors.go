// Package core defines the domain error taxonomy shared by the services
// and the API layer. Validation outcomes are data (ValidationReport), never
// errors; DomainError is reserved for contract violations, missing
// resources, and infrastructure failures.
package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatConflict   ErrorCategory = "conflict"   // Uniqueness or state conflict
	ErrCatStorage    ErrorCategory = "storage"    // Persistence failure
	ErrCatNetwork    ErrorCategory = "network"    // Provider connectivity
	ErrCatTimeout    ErrorCategory = "timeout"    // Collaborator timed out
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
	Details  map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrConflict creates a conflict error.
func ErrConflict(code, message string) *DomainError {
	return &DomainError{Category: ErrCatConflict, Code: code, Message: message}
}

// ErrStorage creates a persistence error.
func ErrStorage(message string) *DomainError {
	return &DomainError{Category: ErrCatStorage, Code: "STORAGE_FAILED", Message: message}
}

// ErrNetwork creates a provider connectivity error.
func ErrNetwork(message string) *DomainError {
	return &DomainError{Category: ErrCatNetwork, Code: "NETWORK_FAILED", Message: message}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{Category: ErrCatTimeout, Code: "TIMEOUT", Message: message}
}

// ErrInternal creates an internal invariant-violation error.
func ErrInternal(code, message string) *DomainError {
	return &DomainError{Category: ErrCatInternal, Code: code, Message: message}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeProfileNotFound  = "PROFILE_NOT_FOUND"
	CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	CodeHistoryNotFound  = "HISTORY_NOT_FOUND"
	CodeBackupNotFound   = "BACKUP_NOT_FOUND"
	CodeNameTaken        = "NAME_TAKEN"
	CodeBuiltinImmutable = "BUILTIN_IMMUTABLE"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeUnknownCategory  = "UNKNOWN_CATEGORY"
	CodeUnknownStrategy  = "UNKNOWN_STRATEGY"
	CodeFieldOutOfScope  = "FIELD_OUT_OF_SCOPE"
	CodeEmptyPath        = "EMPTY_PATH"
)
