package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/availability"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations and their embedded
// charge lines.  Reservation documents are keyed by their human-readable
// reference; queries by room and date range are served by an index on
// (room_id, check_in, check_out).  All timestamp fields are stored in UTC.
//
// The create/confirm/check-in methods are critical sections: each one locks
// the room row (SELECT ... FOR UPDATE), re-reads the potentially blocking
// reservations, applies the availability predicate and performs the write
// inside the same transaction.  Two concurrent writers on the same room
// therefore serialize, and the loser observes the winner's row — it gets a
// *ConflictError, never a partial write.  Rows are never deleted:
// cancellation is a terminal state that preserves the audit history.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, reference, room_id, user_id, guest_name, guest_email, guest_phone,
       check_in, check_out, adults, children, status, payment_status,
       base_amount_cents, total_amount_cents, hold_expires_at, cancel_reason, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx so scan helpers can run
// inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanReservationRow(scan func(dest ...any) error) (*model.Reservation, error) {
	var res model.Reservation
	var status, payment string
	var holdExpires sql.NullTime
	var cancelReason sql.NullString
	err := scan(
		&res.ID, &res.Reference, &res.RoomID, &res.UserID,
		&res.Guest.Name, &res.Guest.Email, &res.Guest.Phone,
		&res.CheckIn, &res.CheckOut, &res.Adults, &res.Children,
		&status, &payment,
		&res.BaseAmountCents, &res.TotalAmountCents,
		&holdExpires, &cancelReason, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	res.PaymentStatus = model.PaymentStatus(payment)
	if holdExpires.Valid {
		res.HoldExpiresAt = holdExpires.Time.UTC()
	}
	if cancelReason.Valid {
		res.CancelReason = cancelReason.String
	}
	res.CheckIn = res.CheckIn.UTC()
	res.CheckOut = res.CheckOut.UTC()
	return &res, nil
}

// loadCharges fetches the charge lines for one reservation in position
// order, which keeps bill projections deterministic.
func loadCharges(ctx context.Context, q querier, reservationID uint64) ([]model.Charge, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, reservation_id, description, category, quantity, unit_price_cents, position, created_at
		 FROM reservation_charges WHERE reservation_id = ? ORDER BY position`,
		reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	charges := make([]model.Charge, 0)
	for rows.Next() {
		var ch model.Charge
		var category string
		if err := rows.Scan(&ch.ID, &ch.ReservationID, &ch.Description, &category, &ch.Quantity, &ch.UnitPriceCents, &ch.Position, &ch.CreatedAt); err != nil {
			return nil, err
		}
		ch.Category = model.ChargeCategory(category)
		charges = append(charges, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return charges, nil
}

func (r *ReservationRepo) getByReference(ctx context.Context, q querier, reference string, forUpdate bool) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reference = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	row := q.QueryRowContext(ctx, query, reference)
	res, err := scanReservationRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Charges, err = loadCharges(ctx, q, res.ID)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetByReference returns a single reservation with its charge lines, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	return r.getByReference(ctx, r.db, reference, false)
}

// blocking fetches the reservations on a room whose status may block the
// requested interval, pre-filtered by the overlap window so the
// (room_id, check_in, check_out) index does the heavy lifting.  Soft-hold
// expiry is not applied here — that is the availability package's job, so
// the lazy-expiry rule lives in exactly one place.
func (r *ReservationRepo) blocking(ctx context.Context, q querier, roomID uint64, iv availability.Interval, statuses []string, excludeRef string) ([]model.Reservation, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE room_id = ? AND status IN (` + placeholders + `) AND check_in < ? AND ? < check_out`
	args := []any{roomID}
	for _, s := range statuses {
		args = append(args, s)
	}
	args = append(args, iv.CheckOut, iv.CheckIn)
	if excludeRef != "" {
		query += ` AND reference <> ?`
		args = append(args, excludeRef)
	}
	query += ` ORDER BY check_in`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservationRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var allBlockingStatuses = []string{"pending", "confirmed", "checked_in"}

// occupancyStatuses is the narrower set re-verified at check-in time:
// pending holds reserve future inventory but do not represent a guest
// physically occupying the room.
var occupancyStatuses = []string{"confirmed", "checked_in"}

// ListBlocking returns the candidate blocking reservations for a read-only
// availability query.
func (r *ReservationRepo) ListBlocking(ctx context.Context, roomID uint64, iv availability.Interval, excludeRef string) ([]model.Reservation, error) {
	return r.blocking(ctx, r.db, roomID, iv, allBlockingStatuses, excludeRef)
}

// CreateReservation persists a new pending reservation after verifying the
// interval is free, all inside one transaction that holds the room row
// lock.  On success the generated ID and database-assigned timestamps are
// populated on res.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res *model.Reservation, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the room row; concurrent create/confirm/check-in on the same
	// room serialize here.
	var roomID uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, res.RoomID).Scan(&roomID)
	if err == sql.ErrNoRows {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	iv := availability.NewInterval(res.CheckIn, res.CheckOut)
	existing, err := r.blocking(ctx, tx, res.RoomID, iv, allBlockingStatuses, "")
	if err != nil {
		return err
	}
	if refs := availability.Conflicts(existing, iv, "", now); len(refs) > 0 {
		return &ConflictError{RoomID: res.RoomID, Conflicts: refs}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations
		 (reference, room_id, user_id, guest_name, guest_email, guest_phone,
		  check_in, check_out, adults, children, status, payment_status,
		  base_amount_cents, total_amount_cents, hold_expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Reference, res.RoomID, res.UserID,
		res.Guest.Name, res.Guest.Email, res.Guest.Phone,
		res.CheckIn, res.CheckOut, res.Adults, res.Children,
		string(res.Status), string(res.PaymentStatus),
		res.BaseAmountCents, res.TotalAmountCents,
		res.HoldExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	// Query back the full row to populate timestamps and defaults
	fresh, err := r.getByReference(ctx, tx, res.Reference, false)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*res = *fresh
	return nil
}

// transitionWithAvailability re-validates the interval and applies a
// guarded status update inside one transaction.  statuses selects which
// existing reservations count as blocking (holds block a confirm but not a
// physical check-in); fromStatus guards the UPDATE so a concurrent writer
// who already moved the reservation makes this attempt fail with ErrStale.
func (r *ReservationRepo) transitionWithAvailability(ctx context.Context, reference string, fromStatus, toStatus string, statuses []string, clearHold bool, now time.Time) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := r.getByReference(ctx, tx, reference, true)
	if err != nil {
		return nil, err
	}

	var roomID uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, res.RoomID).Scan(&roomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	iv := availability.NewInterval(res.CheckIn, res.CheckOut)
	existing, err := r.blocking(ctx, tx, res.RoomID, iv, statuses, reference)
	if err != nil {
		return nil, err
	}
	if refs := availability.Conflicts(existing, iv, reference, now); len(refs) > 0 {
		return nil, &ConflictError{RoomID: res.RoomID, Conflicts: refs}
	}

	q := `UPDATE reservations SET status = ?`
	if clearHold {
		q += `, hold_expires_at = NULL`
	}
	q += ` WHERE id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, q, toStatus, res.ID, fromStatus)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrStale
	}

	fresh, err := r.getByReference(ctx, tx, reference, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return fresh, nil
}

// ConfirmReservation moves a pending hold to confirmed after re-checking
// that the interval is still free (including other unexpired holds).
func (r *ReservationRepo) ConfirmReservation(ctx context.Context, reference string, now time.Time) (*model.Reservation, error) {
	return r.transitionWithAvailability(ctx, reference, "pending", "confirmed", allBlockingStatuses, true, now)
}

// CheckInReservation moves a confirmed reservation to checked_in after
// re-verifying that no other confirmed or checked-in stay occupies the
// interval.
func (r *ReservationRepo) CheckInReservation(ctx context.Context, reference string, now time.Time) (*model.Reservation, error) {
	return r.transitionWithAvailability(ctx, reference, "confirmed", "checked_in", occupancyStatuses, false, now)
}

// CheckOutReservation finalizes the stay.  The guarded UPDATE insists on
// checked_in status and a settled bill, so the service's precondition check
// cannot be raced: a concurrent payment-status flip makes this fail with
// ErrStale instead of closing an unpaid stay.  After this commits the
// charge list is frozen.
func (r *ReservationRepo) CheckOutReservation(ctx context.Context, reference string) (*model.Reservation, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'checked_out'
		 WHERE reference = ? AND status = 'checked_in' AND payment_status = 'paid'`,
		reference)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, getErr := r.GetByReference(ctx, reference); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStale
	}
	return r.GetByReference(ctx, reference)
}

// CancelReservation moves a pending or confirmed reservation to the
// terminal cancelled state, recording the reason.  The row is kept forever.
func (r *ReservationRepo) CancelReservation(ctx context.Context, reference, reason string) (*model.Reservation, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'cancelled', cancel_reason = ?
		 WHERE reference = ? AND status IN ('pending', 'confirmed')`,
		reason, reference)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, getErr := r.GetByReference(ctx, reference); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStale
	}
	return r.GetByReference(ctx, reference)
}

// AppendCharge inserts a charge line and recomputes the stored total in the
// same transaction, holding the reservation row lock so two concurrent
// charges cannot interleave their totals.
func (r *ReservationRepo) AppendCharge(ctx context.Context, reference string, ch model.Charge) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := r.getByReference(ctx, tx, reference, true)
	if err != nil {
		return nil, err
	}
	if res.Status == model.StatusCheckedOut || res.Status == model.StatusCancelled {
		// The service validated status before calling; reaching this means a
		// concurrent writer closed the ledger in between.
		return nil, ErrStale
	}

	position := len(res.Charges) + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reservation_charges (reservation_id, description, category, quantity, unit_price_cents, position)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.ID, ch.Description, string(ch.Category), ch.Quantity, ch.UnitPriceCents, position); err != nil {
		return nil, err
	}

	newTotal := res.BaseAmountCents + res.ChargesTotalCents() + ch.LineTotalCents()
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET total_amount_cents = ? WHERE id = ?`,
		newTotal, res.ID); err != nil {
		return nil, err
	}

	fresh, err := r.getByReference(ctx, tx, reference, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return fresh, nil
}

// SetPaymentStatus flips the payment flag.  The guard excludes checked_out
// rows, where the bill is frozen.  MySQL reports zero affected rows when
// the value is unchanged, so a no-op flip is confirmed by re-reading rather
// than misreported as a conflict.
func (r *ReservationRepo) SetPaymentStatus(ctx context.Context, reference string, status model.PaymentStatus) (*model.Reservation, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET payment_status = ?
		 WHERE reference = ? AND status <> 'checked_out'`,
		string(status), reference)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		res, getErr := r.GetByReference(ctx, reference)
		if getErr != nil {
			return nil, getErr
		}
		if res.PaymentStatus == status && res.Status != model.StatusCheckedOut {
			return res, nil
		}
		return nil, ErrStale
	}
	return r.GetByReference(ctx, reference)
}

// ListByUser returns all reservations created by the given portal account,
// newest first, with charge lines populated.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservationRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.attachCharges(ctx, out)
}

// ListForRoom returns every reservation on a room that touches the given
// window, regardless of status, for staff views.
func (r *ReservationRepo) ListForRoom(ctx context.Context, roomID uint64, iv availability.Interval) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE room_id = ? AND check_in < ? AND ? < check_out
		 ORDER BY check_in`,
		roomID, iv.CheckOut, iv.CheckIn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservationRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.attachCharges(ctx, out)
}

// attachCharges populates the charge lines for a batch of reservations in a
// single query.
func (r *ReservationRepo) attachCharges(ctx context.Context, reservations []model.Reservation) ([]model.Reservation, error) {
	if len(reservations) == 0 {
		return reservations, nil
	}
	ids := make([]any, 0, len(reservations))
	placeholders := make([]string, 0, len(reservations))
	index := make(map[uint64]int, len(reservations))
	for i := range reservations {
		ids = append(ids, reservations[i].ID)
		placeholders = append(placeholders, "?")
		index[reservations[i].ID] = i
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, description, category, quantity, unit_price_cents, position, created_at
		 FROM reservation_charges
		 WHERE reservation_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY reservation_id, position`,
		ids...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ch model.Charge
		var category string
		if err := rows.Scan(&ch.ID, &ch.ReservationID, &ch.Description, &category, &ch.Quantity, &ch.UnitPriceCents, &ch.Position, &ch.CreatedAt); err != nil {
			return nil, err
		}
		ch.Category = model.ChargeCategory(category)
		if i, ok := index[ch.ReservationID]; ok {
			reservations[i].Charges = append(reservations[i].Charges, ch)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}
