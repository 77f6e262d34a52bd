package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.  The
// happy path is pending → confirmed → checked_in → checked_out; cancellation
// branches off pending or confirmed and is terminal.  Reservations are never
// deleted — cancellation preserves the audit history.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusCancelled  ReservationStatus = "cancelled"
)

// PaymentStatus tracks whether the reservation's bill has been settled.
// Check-out requires paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// ChargeCategory is the closed set of ad-hoc charge tags.  Keeping the set
// enumerated (rather than free-form strings) keeps billing arithmetic and
// reporting exhaustive.
type ChargeCategory string

const (
	ChargeMinibar      ChargeCategory = "minibar"
	ChargeLaundry      ChargeCategory = "laundry"
	ChargeRoomService  ChargeCategory = "room_service"
	ChargeLateCheckout ChargeCategory = "late_checkout"
	ChargeDamages      ChargeCategory = "damages"
	ChargeOther        ChargeCategory = "other"
)

// ValidChargeCategory reports whether c is one of the enumerated categories.
func ValidChargeCategory(c ChargeCategory) bool {
	switch c {
	case ChargeMinibar, ChargeLaundry, ChargeRoomService, ChargeLateCheckout, ChargeDamages, ChargeOther:
		return true
	}
	return false
}

// Charge is a single ad-hoc line item on a reservation.  Charges are owned
// by exactly one reservation and become immutable once the reservation
// reaches checked_out.
//
// Fields:
//  ID             – primary key identifier.
//  ReservationID  – owning reservation.
//  Description    – human-readable line description.
//  Category       – enumerated charge tag, see ChargeCategory.
//  Quantity       – number of units, always ≥ 1.
//  UnitPriceCents – price per unit in minor currency units, always ≥ 0.
//  Position       – stable ordering of lines within the reservation.
//  CreatedAt      – creation timestamp.
type Charge struct {
	ID             uint64         // reservation_charges.id
	ReservationID  uint64         // reservation_charges.reservation_id
	Description    string         // reservation_charges.description
	Category       ChargeCategory // reservation_charges.category
	Quantity       int            // reservation_charges.quantity
	UnitPriceCents int64          // reservation_charges.unit_price_cents
	Position       int            // reservation_charges.position
	CreatedAt      time.Time      // reservation_charges.created_at
}

// LineTotalCents returns quantity × unit price.
func (c Charge) LineTotalCents() int64 {
	return int64(c.Quantity) * c.UnitPriceCents
}

// Guest is the contact identity embedded in a reservation.  A reservation
// may additionally link to a user account via Reservation.UserID when the
// booking was made through the guest portal.
type Guest struct {
	Name  string // reservations.guest_name
	Email string // reservations.guest_email
	Phone string // reservations.guest_phone
}

// Reservation is the central entity: one stay of one guest party in one
// room over a half-open date interval [CheckIn, CheckOut).  All monetary
// fields are integer minor currency units.  TotalAmountCents is derived from
// BaseAmountCents plus the charge lines and is recomputed on every charge
// write, never mutated independently.
//
// While Status is pending the reservation is a soft hold: it blocks
// availability only until HoldExpiresAt, after which other bookings may
// claim the interval (the row itself is not mutated proactively — expiry is
// evaluated lazily at query time).
type Reservation struct {
	ID               uint64            // reservations.id
	Reference        string            // reservations.reference (unique, human-readable)
	RoomID           uint64            // reservations.room_id
	UserID           uint64            // reservations.user_id (0 for staff-created walk-ins)
	Guest            Guest             // embedded guest contact
	CheckIn          time.Time         // reservations.check_in (midnight UTC)
	CheckOut         time.Time         // reservations.check_out (midnight UTC, exclusive)
	Adults           int               // reservations.adults (≥ 1)
	Children         int               // reservations.children (≥ 0)
	Status           ReservationStatus // reservations.status
	PaymentStatus    PaymentStatus     // reservations.payment_status
	BaseAmountCents  int64             // reservations.base_amount_cents (rate × nights)
	TotalAmountCents int64             // reservations.total_amount_cents (derived)
	Charges          []Charge          // reservation_charges rows, position order
	HoldExpiresAt    time.Time         // reservations.hold_expires_at (soft-hold deadline)
	CancelReason     string            // reservations.cancel_reason (set only when cancelled)
	CreatedAt        time.Time         // reservations.created_at
	UpdatedAt        time.Time         // reservations.updated_at
}

// Nights returns the number of nights covered by the stay.  The interval is
// half-open, so a 2024-09-21 → 2024-09-23 stay is two nights.
func (r *Reservation) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// ChargesTotalCents sums all ad-hoc charge lines.
func (r *Reservation) ChargesTotalCents() int64 {
	var sum int64
	for _, c := range r.Charges {
		sum += c.LineTotalCents()
	}
	return sum
}

// RecomputeTotal rederives TotalAmountCents from the base amount and the
// charge lines.  Every write path that touches charges must call this so the
// stored total never drifts from its components.
func (r *Reservation) RecomputeTotal() {
	r.TotalAmountCents = r.BaseAmountCents + r.ChargesTotalCents()
}
