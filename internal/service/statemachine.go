package service

import "github.com/iliyamo/hotel-reservation/internal/model"

// transitions is the closed table of legal status changes.  The happy path
// is linear (pending → confirmed → checked_in → checked_out); cancellation
// branches off pending or confirmed and is terminal.  Creation is not a
// transition — new reservations enter as pending via Create.
var transitions = map[model.ReservationStatus]map[model.ReservationStatus]bool{
	model.StatusPending: {
		model.StatusConfirmed: true,
		model.StatusCancelled: true,
	},
	model.StatusConfirmed: {
		model.StatusCheckedIn: true,
		model.StatusCancelled: true,
	},
	model.StatusCheckedIn: {
		model.StatusCheckedOut: true,
	},
	// checked_out and cancelled are terminal.
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to model.ReservationStatus) bool {
	return transitions[from][to]
}

// ValidateTransition returns an *InvalidTransitionError when from → to is
// not a legal status change.  Illegal attempts are never retried.
func ValidateTransition(from, to model.ReservationStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
