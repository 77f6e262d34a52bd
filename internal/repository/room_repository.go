package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomRepo provides CRUD operations for rooms.  Rooms are the inventory
// axis of the system; the reservation core reads the nightly rate and
// capacity from here and writes the coarse status flag back as a cache.
// All timestamp fields are stored in UTC.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span rooms and reservations.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = "id, number, room_type, nightly_rate_cents, capacity, status, created_at, updated_at"

func scanRoom(row *sql.Row) (*model.Room, error) {
	var rm model.Room
	var status string
	err := row.Scan(&rm.ID, &rm.Number, &rm.Type, &rm.NightlyRateCents, &rm.Capacity, &status, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rm.Status = model.RoomStatus(status)
	return &rm, nil
}

// Create inserts a room and populates the generated ID.  Room numbers are
// unique; a duplicate insert surfaces MySQL error 1062, which is mapped to
// ErrConflict for the handler layer.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (number, room_type, nightly_rate_cents, capacity, status) VALUES (?, ?, ?, ?, ?)`,
		rm.Number, rm.Type, rm.NightlyRateCents, rm.Capacity, string(rm.Status))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, rm.ID)
	got, err := scanRoom(row)
	if err != nil {
		return err
	}
	*rm = *got
	return nil
}

// Update rewrites the mutable attributes of a room.  The status cache is
// written separately via SetStatus.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET room_type = ?, nightly_rate_cents = ?, capacity = ? WHERE id = ?`,
		rm.Type, rm.NightlyRateCents, rm.Capacity, rm.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 when the values did not change; confirm the
		// room exists before reporting not-found.
		var id uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ?`, rm.ID).Scan(&id); err != nil {
			if err == sql.ErrNoRows {
				return ErrRoomNotFound
			}
			return err
		}
	}
	return nil
}

// GetByID returns a single room or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	rm, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// GetByNumber returns the room with the given human-facing number.
func (r *RoomRepo) GetByNumber(ctx context.Context, number string) (*model.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE number = ?`, number)
	rm, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// List returns all rooms ordered by number, optionally filtered by room
// type and minimum capacity.
func (r *RoomRepo) List(ctx context.Context, roomType string, minCapacity int) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms`
	where := []string{}
	args := []any{}
	if roomType != "" {
		where = append(where, "room_type = ?")
		args = append(args, roomType)
	}
	if minCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, minCapacity)
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY number"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		var status string
		if err := rows.Scan(&rm.ID, &rm.Number, &rm.Type, &rm.NightlyRateCents, &rm.Capacity, &status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		rm.Status = model.RoomStatus(status)
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus writes the coarse occupancy cache.  Callers treat this as
// best-effort; the flag is never consulted for availability decisions.
func (r *RoomRepo) SetStatus(ctx context.Context, id uint64, status model.RoomStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ?`, string(status), id)
	return err
}
