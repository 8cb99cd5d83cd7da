package flights

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCabinClass is returned before any upstream call when the
// requested cabin is not one of the cross-reference buckets.
var ErrUnsupportedCabinClass = errors.New("unsupported cabin class")

// ValidationError marks client input problems that are never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
