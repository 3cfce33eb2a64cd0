package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced to catalog callers. Match them with errors.Is.
var (
	ErrUniquenessViolation    = errors.New("uniqueness violation")
	ErrInvalidEnumValue       = errors.New("invalid enum value")
	ErrReferentialRestriction = errors.New("referential restriction")
	ErrValidation             = errors.New("validation failed")
)

// ConstraintError describes a rejected write or delete.
type ConstraintError struct {
	Kind   error  // One of the Err* kinds above
	Entity string // Model name, e.g. "book"
	Field  string // Offending field, or the referencing relation for restrictions
	Value  string
	Count  int64 // Number of referencing rows for restrictions
}

func (e *ConstraintError) Error() string {
	switch e.Kind {
	case ErrUniquenessViolation:
		return fmt.Sprintf("%s with this %s already exists: %q", e.Entity, e.Field, e.Value)
	case ErrInvalidEnumValue:
		return fmt.Sprintf("%q is not a valid %s for %s", e.Value, e.Field, e.Entity)
	case ErrReferentialRestriction:
		return fmt.Sprintf("cannot delete %s %s: referenced by %d row(s) through %s", e.Entity, e.Value, e.Count, e.Field)
	default:
		return fmt.Sprintf("%s: %s %s", e.Kind, e.Entity, e.Field)
	}
}

func (e *ConstraintError) Unwrap() error {
	return e.Kind
}

// ValidationError collects per-field problems for one entity.
type ValidationError struct {
	Entity string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a single-field validation error.
func NewValidationError(entity, field, msg string) *ValidationError {
	return &ValidationError{Entity: entity, Fields: map[string]string{field: msg}}
}

// FieldErrors extracts the field map from a validation or enum error so
// forms can display messages next to inputs. Returns nil for other errors.
func FieldErrors(err error) map[string]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	var cerr *ConstraintError
	if errors.As(err, &cerr) && cerr.Field != "" && !errors.Is(cerr, ErrReferentialRestriction) {
		return map[string]string{cerr.Field: cerr.Error()}
	}
	return nil
}
