package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity id is absent from
	// the store (read, delete, update on a missing row).
	ErrNotFound = errors.New("not found")

	// ErrEmptyBatch is returned when an operation that needs at least one
	// trade receives none (e.g. the dedup filter cannot compute a date
	// range over an empty batch).
	ErrEmptyBatch = errors.New("empty trade batch")
)

// FieldError is a single field-level validation violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every field-level violation found on an entity
// rather than failing on the first, so a caller can display all problems at
// once.
type ValidationError struct {
	Fields []FieldError
}

// Add appends a violation for the given field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DataQualityError marks a business error in the accounting path itself: a
// trading pair that cannot be decomposed against the known asset list, or a
// merge that meets two records of one asset in different currencies.
// Computation fails for the whole batch; skipping would silently corrupt
// aggregate totals.
type DataQualityError struct {
	Reason string
}

func (e *DataQualityError) Error() string {
	return "data quality: " + e.Reason
}

// DataQualityf builds a DataQualityError with a formatted reason.
func DataQualityf(format string, args ...any) error {
	return &DataQualityError{Reason: fmt.Sprintf(format, args...)}
}
