package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation  ErrorCategory = "validation"  // Invalid input or config value
	ErrCatLaunch      ErrorCategory = "launch"      // Desktop app launch failure
	ErrCatTimeout     ErrorCategory = "timeout"     // Operation timed out
	ErrCatNetwork     ErrorCategory = "network"     // Connectivity failure
	ErrCatIO          ErrorCategory = "io"          // File read/write failure
	ErrCatParse       ErrorCategory = "parse"       // Document decode failure
	ErrCatState       ErrorCategory = "state"       // Illegal workflow transition
	ErrCatNotFound    ErrorCategory = "not_found"   // Resource not found
	ErrCatInterrupted ErrorCategory = "interrupted" // User interrupt
	ErrCatSystem      ErrorCategory = "system"      // Unrecoverable runtime fault
	ErrCatInternal    ErrorCategory = "internal"    // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
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
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrLaunch creates a desktop launch error.
func ErrLaunch(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatLaunch,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrNetwork creates a connectivity error.
func ErrNetwork(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatNetwork,
		Code:      "NETWORK",
		Message:   message,
		Retryable: true,
	}
}

// ErrIO creates a file operation error.
func ErrIO(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatIO,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrParse creates a document decode error.
func ErrParse(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatParse,
		Code:      CodeParseFailed,
		Message:   message,
		Retryable: false,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(code, resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      code,
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// ErrInterrupted creates a user interrupt error.
func ErrInterrupted(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatInterrupted,
		Code:      "INTERRUPTED",
		Message:   message,
		Retryable: false,
	}
}

// ErrSystem creates an unrecoverable runtime fault error.
func ErrSystem(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatSystem,
		Code:      "SYSTEM_FAULT",
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
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
	CodeRequestNotFound    = "REQUEST_NOT_FOUND"
	CodeResponseNotFound   = "RESPONSE_NOT_FOUND"
	CodeCheckpointNotFound = "CHECKPOINT_NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeLaunchFailed       = "LAUNCH_FAILED"
	CodeNotReady           = "APP_NOT_READY"
	CodeParseFailed        = "PARSE_FAILED"
	CodeManifestCorrupted  = "MANIFEST_CORRUPTED"
	CodeFileRead           = "FILE_READ"
	CodeFileWrite          = "FILE_WRITE"
	CodeAmbiguousID        = "AMBIGUOUS_ID"

	// Validation error codes
	CodeEmptyTitle    = "EMPTY_TITLE"
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeInvalidField  = "INVALID_FIELD"
)
