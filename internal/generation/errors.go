package generation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGenerationFailed is matched by every error returned from a Service.
var ErrGenerationFailed = errors.New("generation failed")

// GenerationFailure reports a failed flow and carries the underlying cause.
type GenerationFailure struct {
	Kind string
	Err  error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationFailure) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}

// SchemaValidationError is returned when a backend answer does not match
// the output schema of its flow.
type SchemaValidationError struct {
	Schema   string
	Problems []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("output does not match schema %q: %s", e.Schema, strings.Join(e.Problems, "; "))
}
