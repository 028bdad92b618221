// Package apperr defines the error taxonomy surfaced by the HTTP layer.
// Every failure a handler can report maps to exactly one of these types.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ReferenceNotFound reports a foreign-key target that does not exist,
// e.g. a submission naming a sub-category id with no matching row.
type ReferenceNotFound struct {
	Entity string
	ID     uint
}

func (e *ReferenceNotFound) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Entity, e.ID)
}

// NotFound reports a lookup by id that matched no record.
type NotFound struct {
	Entity string
	ID     uint
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Validation carries a field path -> message map for a 422 response.
type Validation struct {
	Fields map[string]string
}

func (e *Validation) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidation builds a Validation error for a single field.
func NewValidation(field, message string) *Validation {
	return &Validation{Fields: map[string]string{field: message}}
}

// Conflict reports a uniqueness violation.
type Conflict struct {
	Message string
}

func (e *Conflict) Error() string {
	return e.Message
}

// AttachmentRejected reports an upload that failed the type or size check.
type AttachmentRejected struct {
	Reason string
}

func (e *AttachmentRejected) Error() string {
	return e.Reason
}

// Status returns the HTTP status code for a taxonomy error, or 500 for
// anything outside the taxonomy. Wrapped taxonomy errors are unwrapped.
func Status(err error) int {
	var (
		refNotFound *ReferenceNotFound
		notFound    *NotFound
		validation  *Validation
		rejected    *AttachmentRejected
		conflict    *Conflict
	)
	switch {
	case errors.As(err, &refNotFound), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
