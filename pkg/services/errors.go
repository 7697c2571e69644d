// Package services provides the blueprint compilation pipeline and
// standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/waflow/waflow/pkg/persistence"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	ErrBlueprintNil          = errors.New("blueprint cannot be nil")
	ErrBlueprintNameRequired = errors.New("blueprint name is required")
	ErrBotIDRequired         = errors.New("bot ID is required")
	ErrBlueprintInvalid      = errors.New("blueprint failed validation")
	ErrBlueprintNotRunnable  = errors.New("blueprint is not executable")

	// ErrBlueprintNotFound re-exports the persistence sentinel.
	ErrBlueprintNotFound = persistence.ErrBlueprintNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrBlueprintNil) ||
		errors.Is(err, ErrBlueprintNameRequired) ||
		errors.Is(err, ErrBotIDRequired) ||
		errors.Is(err, ErrBlueprintInvalid) ||
		errors.Is(err, ErrBlueprintNotRunnable)
}

// IsNotFound checks if an error should map to HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, persistence.ErrBlueprintNotFound)
}
