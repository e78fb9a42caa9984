package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation and pipeline failures.
var (
	ErrEmptyPrompt     = errors.New("prompt is empty")
	ErrPromptTooLong   = errors.New("prompt too long")
	ErrPromptInjection = errors.New("prompt contains suspicious content")
	ErrCatalogEmpty    = errors.New("catalog has no items")
	ErrEmbedding       = errors.New("embedding provider failed")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
