package builder

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Field names used as keys in a ValidationError. They match the JSON names
// of the request bodies so that handlers can point at the offending field.
const (
	FieldScriptOutline     = "scriptOutline"
	FieldConceptArt        = "conceptArt"
	FieldConceptArtDataURI = "conceptArtDataUri"
	FieldModelDescription  = "modelDescription"
)

// FieldErrors maps a field name to a human readable message.
type FieldErrors map[string]string

// ValidationError is returned when raw input cannot be turned into a request.
// It carries one entry per offending field.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// ReadError is returned when an uploaded file cannot be read into an
// embedded data reference.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("unable to read file: %v", e.Err)
	}
	return fmt.Sprintf("unable to read file %q: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// collector gathers field errors during a single validation pass.
type collector struct {
	fields FieldErrors
}

func (c *collector) add(field, message string) {
	if c.fields == nil {
		c.fields = FieldErrors{}
	}
	// keep the first problem reported for a field
	if _, ok := c.fields[field]; !ok {
		c.fields[field] = message
	}
}

func (c *collector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

var errNoContent = errors.New("file has no content")
