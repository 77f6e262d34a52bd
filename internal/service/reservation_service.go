package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/availability"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/utils"
)

// Store is the persistence contract the reservation service depends on.
// The create/confirm/check-in methods are critical sections: each performs
// "read conflicting reservations" and "write" as one atomic unit relative
// to other writers on the same room, so that two concurrent attempts for
// the same room and interval cannot both succeed — the loser receives a
// *repository.ConflictError, never a partial write.  Guarded updates return
// repository.ErrStale when a concurrent writer changed the state between
// the service's read and the write.
type Store interface {
	GetRoom(ctx context.Context, roomID uint64) (*model.Room, error)
	// SetRoomStatus writes the coarse occupancy cache on the room row.
	// Best-effort: the field is never consulted for availability.
	SetRoomStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error

	GetReservation(ctx context.Context, reference string) (*model.Reservation, error)
	// ListBlocking returns the reservations on the room that may block the
	// interval (blocking statuses, overlap pre-filtered); soft-hold expiry
	// is applied by the caller via the availability package.
	ListBlocking(ctx context.Context, roomID uint64, iv availability.Interval, excludeRef string) ([]model.Reservation, error)

	CreateReservation(ctx context.Context, res *model.Reservation, now time.Time) error
	ConfirmReservation(ctx context.Context, reference string, now time.Time) (*model.Reservation, error)
	CheckInReservation(ctx context.Context, reference string, now time.Time) (*model.Reservation, error)
	CheckOutReservation(ctx context.Context, reference string) (*model.Reservation, error)
	CancelReservation(ctx context.Context, reference, reason string) (*model.Reservation, error)

	AppendCharge(ctx context.Context, reference string, ch model.Charge) (*model.Reservation, error)
	SetPaymentStatus(ctx context.Context, reference string, status model.PaymentStatus) (*model.Reservation, error)
}

// AuditLogger receives activity events for successful mutations.  Delivery
// is fire-and-forget: a logging failure must never abort or roll back the
// reservation mutation it describes.
type AuditLogger interface {
	Record(ctx context.Context, ev queue.AuditEvent) error
}

// ReservationService orchestrates the availability index, the state machine
// and the billing ledger into the public use cases.  It is the sole mutator
// of reservation state; handlers never write through the repositories
// directly.
type ReservationService struct {
	store            Store
	audit            AuditLogger
	holdTTL          time.Duration
	serviceChargeBps int64

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

// NewReservationService constructs the service.  audit may be nil, in which
// case activity events are dropped.
func NewReservationService(store Store, audit AuditLogger, holdTTL time.Duration, serviceChargeBps int64) *ReservationService {
	if store == nil {
		panic("nil store passed to NewReservationService")
	}
	return &ReservationService{
		store:            store,
		audit:            audit,
		holdTTL:          holdTTL,
		serviceChargeBps: serviceChargeBps,
		now:              time.Now,
	}
}

// CreateReservationInput carries the already-authenticated, field-validated
// request to create a booking.
type CreateReservationInput struct {
	RoomID   uint64
	UserID   uint64 // portal account, 0 for staff-created walk-ins
	Guest    model.Guest
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Children int
	Actor    string
}

// Create performs the availability check and, only when the interval is
// free, persists a new pending reservation (a soft hold valid for the
// configured TTL) together with its base amount in a single atomic
// operation.  On conflict it returns *RoomUnavailableError carrying the
// blocking references.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	iv := availability.NewInterval(in.CheckIn, in.CheckOut)
	if !iv.Valid() {
		return nil, validationErr("dates", "check-out must be after check-in")
	}
	if in.Adults < 1 {
		return nil, validationErr("adults", "must be at least 1")
	}
	if in.Children < 0 {
		return nil, validationErr("children", "must not be negative")
	}
	if in.Guest.Name == "" {
		return nil, validationErr("guest_name", "is required")
	}

	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if in.Adults+in.Children > room.Capacity {
		return nil, validationErr("guest_count", fmt.Sprintf("exceeds room capacity of %d", room.Capacity))
	}

	ref, err := utils.NewReservationReference(iv.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflictOrUnavailable, err)
	}

	now := s.now().UTC()
	res := &model.Reservation{
		Reference:       ref,
		RoomID:          room.ID,
		UserID:          in.UserID,
		Guest:           in.Guest,
		CheckIn:         iv.CheckIn,
		CheckOut:        iv.CheckOut,
		Adults:          in.Adults,
		Children:        in.Children,
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentUnpaid,
		BaseAmountCents: room.NightlyRateCents * int64(iv.Nights()),
		HoldExpiresAt:   now.Add(s.holdTTL),
	}
	res.RecomputeTotal()

	if err := s.store.CreateReservation(ctx, res, now); err != nil {
		return nil, s.mapStoreErr(err)
	}

	s.recordAudit("reservation.created", in.Actor, res.Reference, res.RoomID, fmt.Sprintf("%s -> %s", res.CheckIn.Format("2006-01-02"), res.CheckOut.Format("2006-01-02")), res.TotalAmountCents)
	return res, nil
}

// TransitionContext carries who requested a status change and, for
// cancellation, why.
type TransitionContext struct {
	Actor  string
	Reason string
}

// ChangeStatus applies the transition table to the reservation.  Guards:
// confirm re-checks availability, check-in requires the current date inside
// the stay window and re-verifies occupancy, check-out requires a settled
// bill and freezes the charge list, cancel requires a reason.  Anything
// outside the table fails with *InvalidTransitionError.
func (s *ReservationService) ChangeStatus(ctx context.Context, reference string, target model.ReservationStatus, tc TransitionContext) (*model.Reservation, error) {
	res, err := s.store.GetReservation(ctx, reference)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if err := ValidateTransition(res.Status, target); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var updated *model.Reservation

	switch target {
	case model.StatusConfirmed:
		updated, err = s.store.ConfirmReservation(ctx, reference, now)

	case model.StatusCheckedIn:
		today := availability.NormalizeDate(now)
		if today.Before(res.CheckIn) || !today.Before(res.CheckOut) {
			return nil, validationErr("check_in", "current date is outside the stay window")
		}
		updated, err = s.store.CheckInReservation(ctx, reference, now)

	case model.StatusCheckedOut:
		if res.PaymentStatus != model.PaymentPaid {
			return nil, &PaymentRequiredError{Reference: reference, OutstandingCents: res.TotalAmountCents}
		}
		updated, err = s.store.CheckOutReservation(ctx, reference)

	case model.StatusCancelled:
		if tc.Reason == "" {
			return nil, validationErr("reason", "is required to cancel a reservation")
		}
		updated, err = s.store.CancelReservation(ctx, reference, tc.Reason)

	default:
		return nil, &InvalidTransitionError{From: res.Status, To: target}
	}
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	s.updateRoomStatusCache(updated.RoomID, target)
	s.recordAudit("reservation."+string(target), tc.Actor, reference, updated.RoomID, tc.Reason, updated.TotalAmountCents)
	return updated, nil
}

// AddCharge appends an ad-hoc charge to the reservation's ledger and
// recomputes the total in the same write.  Charges are closed once the stay
// is settled or void.
func (s *ReservationService) AddCharge(ctx context.Context, reference string, ch model.Charge, actor string) (*model.Reservation, error) {
	res, err := s.store.GetReservation(ctx, reference)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if res.Status == model.StatusCheckedOut || res.Status == model.StatusCancelled {
		return nil, validationErr("status", "charges are closed on a settled or cancelled reservation")
	}
	if err := validateCharge(ch); err != nil {
		return nil, err
	}

	updated, err := s.store.AppendCharge(ctx, reference, ch)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	s.recordAudit("charge.added", actor, reference, updated.RoomID, fmt.Sprintf("%s x%d", ch.Description, ch.Quantity), ch.LineTotalCents())
	return updated, nil
}

// SetPaymentStatus flips the payment flag.  It never changes the
// reservation status itself — settlement is a precondition checked by the
// check-out transition, not a trigger of it.
func (s *ReservationService) SetPaymentStatus(ctx context.Context, reference string, status model.PaymentStatus, actor string) (*model.Reservation, error) {
	if status != model.PaymentPaid && status != model.PaymentUnpaid {
		return nil, validationErr("payment_status", "must be paid or unpaid")
	}
	res, err := s.store.GetReservation(ctx, reference)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if res.Status == model.StatusCheckedOut {
		return nil, validationErr("payment_status", "bill is frozen after check-out")
	}

	updated, err := s.store.SetPaymentStatus(ctx, reference, status)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	s.recordAudit("payment."+string(status), actor, reference, updated.RoomID, "", updated.TotalAmountCents)
	return updated, nil
}

// GetBill projects the reservation into a Bill.  Deterministic for
// unchanged reservation state, so it can back idempotent PDF/email
// regeneration.
func (s *ReservationService) GetBill(ctx context.Context, reference string) (model.Bill, error) {
	res, err := s.store.GetReservation(ctx, reference)
	if err != nil {
		return model.Bill{}, s.mapStoreErr(err)
	}
	room, err := s.store.GetRoom(ctx, res.RoomID)
	if err != nil {
		return model.Bill{}, s.mapStoreErr(err)
	}
	return GenerateBill(res, room, s.serviceChargeBps), nil
}

// IsAvailable answers the read-only availability question for a room and
// interval, returning the conflicting references when blocked.
func (s *ReservationService) IsAvailable(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeRef string) (bool, []string, error) {
	iv := availability.NewInterval(checkIn, checkOut)
	if !iv.Valid() {
		return false, nil, validationErr("dates", "check-out must be after check-in")
	}
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return false, nil, s.mapStoreErr(err)
	}
	existing, err := s.store.ListBlocking(ctx, roomID, iv, excludeRef)
	if err != nil {
		return false, nil, s.mapStoreErr(err)
	}
	free, refs := availability.IsFree(existing, iv, excludeRef, s.now().UTC())
	return free, refs, nil
}

// mapStoreErr translates repository failures into the service's typed
// taxonomy.  Anything unrecognized (connectivity, aborted transaction) is
// surfaced as ErrConflictOrUnavailable, which the caller may retry exactly
// once; the core never retries internally.
func (s *ReservationService) mapStoreErr(err error) error {
	var conflict *repository.ConflictError
	switch {
	case errors.As(err, &conflict):
		return &RoomUnavailableError{RoomID: conflict.RoomID, Conflicts: conflict.Conflicts}
	case errors.Is(err, repository.ErrRoomNotFound), errors.Is(err, repository.ErrReservationNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return repository.ErrForbidden
	default:
		return fmt.Errorf("%w: %v", ErrConflictOrUnavailable, err)
	}
}

// updateRoomStatusCache rewrites the coarse occupancy flag after a
// successful transition.  Best-effort only: failures are logged and
// swallowed, and short-lived staleness is acceptable because availability
// is always derived from reservation records.
func (s *ReservationService) updateRoomStatusCache(roomID uint64, target model.ReservationStatus) {
	var status model.RoomStatus
	switch target {
	case model.StatusConfirmed:
		status = model.RoomReserved
	case model.StatusCheckedIn:
		status = model.RoomOccupied
	case model.StatusCheckedOut, model.StatusCancelled:
		status = model.RoomAvailable
	default:
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.store.SetRoomStatus(ctx, roomID, status); err != nil {
		log.Printf("room-status-cache: update room %d to %s failed: %v", roomID, status, err)
	}
}

// recordAudit dispatches an activity event asynchronously.  The goroutine
// owns its own timeout and any error is logged locally, never propagated —
// an audit failure must not break the primary operation.
func (s *ReservationService) recordAudit(action, actor, reference string, roomID uint64, detail string, amountCents int64) {
	if s.audit == nil {
		return
	}
	ev := queue.AuditEvent{
		Action:      action,
		Actor:       actor,
		Reference:   reference,
		RoomID:      roomID,
		Detail:      detail,
		AmountCents: amountCents,
		OccurredAt:  s.now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.Record(ctx, ev); err != nil {
			log.Printf("audit: record %s for %s failed: %v", ev.Action, ev.Reference, err)
		}
	}()
}
