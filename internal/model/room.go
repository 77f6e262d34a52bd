package model

import "time"

// RoomStatus is the coarse occupancy flag cached on the `rooms` row.  It is a
// denormalized read optimization for dashboards and is rebuilt from
// reservation records after lifecycle transitions.  Availability decisions
// are always derived from reservations, never from this field, because the
// cache may legitimately be stale for short windows.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "available" // no active stay on the room
	RoomReserved  RoomStatus = "reserved"  // a confirmed reservation exists
	RoomOccupied  RoomStatus = "occupied"  // a guest is currently checked in
)

// Room mirrors a row of the `rooms` table.  Nightly rates are stored in
// integer minor currency units so that billing arithmetic never touches
// floating point.
//
// Fields:
//  ID               – primary key identifier of the room.
//  Number           – human-facing room number, unique (e.g. "101").
//  Type             – free-form room type label (e.g. "double", "suite").
//  NightlyRateCents – price per night in minor currency units.
//  Capacity         – maximum number of guests (adults + children).
//  Status           – coarse occupancy cache, see RoomStatus.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Room struct {
	ID               uint64     // rooms.id
	Number           string     // rooms.number
	Type             string     // rooms.room_type
	NightlyRateCents int64      // rooms.nightly_rate_cents
	Capacity         int        // rooms.capacity
	Status           RoomStatus // rooms.status
	CreatedAt        time.Time  // rooms.created_at
	UpdatedAt        time.Time  // rooms.updated_at
}
