package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/availability"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Store bundles the room and reservation repositories behind the single
// persistence contract the service layer depends on.
type Store struct {
	Rooms        *RoomRepo
	Reservations *ReservationRepo
}

// NewStore wires both repositories over one database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Rooms:        NewRoomRepo(db),
		Reservations: NewReservationRepo(db),
	}
}

func (s *Store) GetRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
	return s.Rooms.GetByID(ctx, roomID)
}

func (s *Store) SetRoomStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error {
	return s.Rooms.SetStatus(ctx, roomID, status)
}

func (s *Store) GetReservation(ctx context.Context, reference string) (*model.Reservation, error) {
	return s.Reservations.GetByReference(ctx, reference)
}

func (s *Store) ListBlocking(ctx context.Context, roomID uint64, iv availability.Interval, excludeRef string) ([]model.Reservation, error) {
	return s.Reservations.ListBlocking(ctx, roomID, iv, excludeRef)
}

func (s *Store) CreateReservation(ctx context.Context, res *model.Reservation, now time.Time) error {
	return s.Reservations.CreateReservation(ctx, res, now)
}

func (s *Store) ConfirmReservation(ctx context.Context, reference string, now time.Time) (*model.Reservation, error) {
	return s.Reservations.ConfirmReservation(ctx, reference, now)
}

func (s *Store) CheckInReservation(ctx context.Context, reference string, now time.Time) (*model.Reservation, error) {
	return s.Reservations.CheckInReservation(ctx, reference, now)
}

func (s *Store) CheckOutReservation(ctx context.Context, reference string) (*model.Reservation, error) {
	return s.Reservations.CheckOutReservation(ctx, reference)
}

func (s *Store) CancelReservation(ctx context.Context, reference, reason string) (*model.Reservation, error) {
	return s.Reservations.CancelReservation(ctx, reference, reason)
}

func (s *Store) AppendCharge(ctx context.Context, reference string, ch model.Charge) (*model.Reservation, error) {
	return s.Reservations.AppendCharge(ctx, reference, ch)
}

func (s *Store) SetPaymentStatus(ctx context.Context, reference string, status model.PaymentStatus) (*model.Reservation, error) {
	return s.Reservations.SetPaymentStatus(ctx, reference, status)
}
