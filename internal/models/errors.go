package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrConcurrencyConflict = errors.New("concurrent booking conflict")
)

// ValidationError carries every violation found in a booking request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Has reports whether msg is one of the violations.
func (e *ValidationError) Has(msg string) bool {
	for _, v := range e.Violations {
		if v == msg {
			return true
		}
	}
	return false
}

// NotFoundError is returned when a court or booking id does not resolve.
type NotFoundError struct {
	Kind string // "court" or "booking"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidStateTransitionError is returned for a status change the state machine forbids.
type InvalidStateTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidStateTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ConcurrencyConflictError is returned when the store refuses an append because the slot
// was taken between the check and the write. Callers retry the whole CreateBooking.
type ConcurrencyConflictError struct {
	CourtID string
	Date    Date
	Time    string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s %s", ErrConcurrencyConflict, e.CourtID, e.Date, e.Time)
}

func (e *ConcurrencyConflictError) Is(target error) bool { return target == ErrConcurrencyConflict }
