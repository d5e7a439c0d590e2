package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// Violation is one rejected request field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a generation request.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid generation request: " + strings.Join(parts, "; ")
}

// OwnershipError reports a resource that does not exist or belongs to
// someone else. Both cases look the same to the caller.
type OwnershipError struct {
	ResourceID string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("resource %s not found", e.ResourceID)
}

// PersistenceError wraps a failed artifact write.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist artifact: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ParseError means provider output was not parseable JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse provider output: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError means provider output parsed but did not match the kind's schema.
type SchemaError struct {
	Kind   Kind
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s payload rejected: %s", e.Kind, e.Reason)
}

// ErrNotFound is returned by lookups of artifacts that were never generated.
var ErrNotFound = errors.New("artifact not found")
