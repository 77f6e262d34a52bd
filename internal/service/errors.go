// Package service implements the reservation lifecycle and billing core:
// availability-checked creation, guarded state transitions, the charge
// ledger and bill projection.  All expected failures are typed, recoverable
// errors so that the HTTP layer can map them to precise responses instead of
// a generic 500.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// ValidationError reports malformed or out-of-range input: inverted dates,
// non-positive quantity, capacity exceeded, missing cancellation reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RoomUnavailableError reports an availability conflict at create, confirm
// or check-in time.  Conflicts carries the references of the blocking
// reservations so the caller can render an actionable message.
type RoomUnavailableError struct {
	RoomID    uint64
	Conflicts []string
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %d unavailable (conflicts: %s)", e.RoomID, strings.Join(e.Conflicts, ", "))
}

// InvalidTransitionError reports a state change attempt outside the
// transition table, identifying current and requested state.
type InvalidTransitionError struct {
	From model.ReservationStatus
	To   model.ReservationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// PaymentRequiredError reports a check-out attempt while the bill is
// unsettled, carrying the outstanding amount.
type PaymentRequiredError struct {
	Reference        string
	OutstandingCents int64
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("reservation %s: %d outstanding, payment required before check-out", e.Reference, e.OutstandingCents)
}

// ErrConflictOrUnavailable is returned when the storage layer failed or a
// concurrent writer invalidated the operation's preconditions.  The caller
// may retry exactly once; the core never retries internally to avoid
// double-booking or double-charging side effects.
var ErrConflictOrUnavailable = errors.New("storage conflict or unavailable")

// ErrNotFound is returned when the referenced room or reservation does not
// exist.
var ErrNotFound = errors.New("not found")
