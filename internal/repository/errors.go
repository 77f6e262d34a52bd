// Package repository implements data access over MySQL.  Sentinel values
// and error types defined here let higher layers distinguish failure
// scenarios without string matching: a missing row, an ownership violation,
// an availability conflict discovered inside a write transaction, or a
// guarded update that lost a race with a concurrent writer.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRoomNotFound is returned when no room exists for the given id or
// number.
var ErrRoomNotFound = errors.New("room not found")

// ErrReservationNotFound is returned when no reservation exists for the
// given reference.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrConflict is returned when an insert collides with a uniqueness
// constraint, such as a duplicate room number.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// reservation owned by a different user.  Handlers translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrStale is returned when a guarded update matched no row: the state the
// caller validated against was changed by a concurrent writer between the
// read and the write.  The operation had no effect.
var ErrStale = errors.New("stale reservation state")

// ConflictError is returned from the create/confirm/check-in critical
// sections when the requested interval overlaps blocking reservations.  The
// conflicting references are collected while the room row is locked, so the
// list is consistent with the rejection.
type ConflictError struct {
	RoomID    uint64
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %d has conflicting reservations: %s", e.RoomID, strings.Join(e.Conflicts, ", "))
}
