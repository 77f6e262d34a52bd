// Package availability answers whether a room is free for a requested
// occupancy interval.  It is the single source of truth for the overlap and
// soft-hold rules: the repository applies the same predicates inside its
// write transactions and the service applies them for read-only queries, so
// the two paths can never disagree.
package availability

import (
	"sort"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Interval is a half-open occupancy interval [CheckIn, CheckOut) on a room.
// Both endpoints are calendar dates normalized to midnight UTC; time of day
// is not significant for occupancy.
type Interval struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NormalizeDate truncates t to midnight UTC.  All interval comparisons go
// through dates normalized this way so that inputs carrying a time of day or
// a non-UTC zone compare consistently.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewInterval builds a normalized interval from raw check-in/check-out times.
func NewInterval(checkIn, checkOut time.Time) Interval {
	return Interval{CheckIn: NormalizeDate(checkIn), CheckOut: NormalizeDate(checkOut)}
}

// Valid reports whether the interval spans at least one night.
func (iv Interval) Valid() bool {
	return iv.CheckIn.Before(iv.CheckOut)
}

// Nights returns the number of nights the interval covers.
func (iv Interval) Nights() int {
	return int(iv.CheckOut.Sub(iv.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open intervals share at least one night.
// Back-to-back stays (a.CheckOut == b.CheckIn) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.CheckIn.Before(b.CheckOut) && b.CheckIn.Before(a.CheckOut)
}

// Blocks reports whether an existing reservation blocks new bookings on its
// room at the given instant.  Confirmed and checked-in reservations always
// block.  A pending reservation is a soft hold: it blocks only while its
// hold deadline has not lapsed.  Expiry is evaluated lazily here — the row
// is not mutated, so no background sweeper is required for correctness.
func Blocks(res *model.Reservation, now time.Time) bool {
	switch res.Status {
	case model.StatusConfirmed, model.StatusCheckedIn:
		return true
	case model.StatusPending:
		return now.Before(res.HoldExpiresAt)
	}
	return false
}

// Conflicts returns the references of the reservations in existing that
// block the requested interval at the given instant, excluding excludeRef
// (used when re-validating a reservation against its own row).  The result
// is sorted so that error payloads are deterministic.
func Conflicts(existing []model.Reservation, req Interval, excludeRef string, now time.Time) []string {
	var refs []string
	for i := range existing {
		res := &existing[i]
		if excludeRef != "" && res.Reference == excludeRef {
			continue
		}
		if !Blocks(res, now) {
			continue
		}
		if Overlaps(NewInterval(res.CheckIn, res.CheckOut), req) {
			refs = append(refs, res.Reference)
		}
	}
	sort.Strings(refs)
	return refs
}

// IsFree reports whether the requested interval is free of blocking
// reservations, and when it is not, which reservations conflict.
func IsFree(existing []model.Reservation, req Interval, excludeRef string, now time.Time) (bool, []string) {
	refs := Conflicts(existing, req, excludeRef, now)
	return len(refs) == 0, refs
}
