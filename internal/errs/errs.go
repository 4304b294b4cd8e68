// Package errs defines the typed errors shared by the store, the matcher
// and the claim workflow. Handlers map these onto HTTP status codes; see
// server/router/apiv1.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or missing request field. It is
// raised before any state change happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExtractionError reports an embedding or photo processing failure.
// Callers must degrade to the remaining signals instead of failing the
// request.
type ExtractionError struct {
	Source string // "text", "image", "phash"
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConflictError reports a claim request against an item that already has
// an active claim. CurrentStatus lets the client resync.
type ConflictError struct {
	ItemID        string
	CurrentStatus string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("item %s already has an active claim (status %s)", e.ItemID, e.CurrentStatus)
}

// InvalidTransitionError reports a claim action that is illegal for the
// claim's current state.
type InvalidTransitionError struct {
	ClaimID string
	From    string
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s claim %s in state %s", e.Action, e.ClaimID, e.From)
}

// NotFoundError reports an unknown item, claim or location id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
