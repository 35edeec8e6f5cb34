package project

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations
var (
	// ErrProjectNotFound indicates the requested project doesn't exist in the registry
	ErrProjectNotFound = errors.New("project not found")

	// ErrRegistryCorrupted indicates the registry file is corrupted
	ErrRegistryCorrupted = errors.New("registry file corrupted")

	// ErrRegistryClosed indicates the registry has been closed
	ErrRegistryClosed = errors.New("registry is closed")
)

// RegistryError wraps registry operation errors with context
type RegistryError struct {
	Op  string // Operation that failed (e.g., "load", "save")
	Err error
}

// Error returns the error message
func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *RegistryError) Unwrap() error {
	return e.Err
}

// NewRegistryError creates a new RegistryError
func NewRegistryError(op string, err error) *RegistryError {
	return &RegistryError{Op: op, Err: err}
}
