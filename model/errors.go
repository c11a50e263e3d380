package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for ordinary missing-row conditions
var ErrNotFound = errors.New("not found")

// ValidationError ...
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError ...
func NewValidationError(field string, reason string) ValidationError {
	return ValidationError{Field: field, Reason: reason}
}
