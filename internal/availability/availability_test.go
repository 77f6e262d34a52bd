package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	in := time.Date(2024, 9, 21, 14, 30, 12, 0, loc)
	got := NormalizeDate(in)
	assert.Equal(t, date(2024, 9, 21), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestOverlaps(t *testing.T) {
	base := NewInterval(date(2024, 9, 21), date(2024, 9, 23))
	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     bool
	}{
		{"identical", date(2024, 9, 21), date(2024, 9, 23), true},
		{"overlapping tail", date(2024, 9, 22), date(2024, 9, 24), true},
		{"overlapping head", date(2024, 9, 20), date(2024, 9, 22), true},
		{"contained", date(2024, 9, 21), date(2024, 9, 22), true},
		{"containing", date(2024, 9, 19), date(2024, 9, 25), true},
		{"back to back after", date(2024, 9, 23), date(2024, 9, 25), false},
		{"back to back before", date(2024, 9, 19), date(2024, 9, 21), false},
		{"disjoint", date(2024, 10, 1), date(2024, 10, 3), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(base, NewInterval(tc.checkIn, tc.checkOut))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBlocksByStatus(t *testing.T) {
	now := time.Date(2024, 9, 20, 12, 0, 0, 0, time.UTC)

	confirmed := &model.Reservation{Status: model.StatusConfirmed}
	checkedIn := &model.Reservation{Status: model.StatusCheckedIn}
	checkedOut := &model.Reservation{Status: model.StatusCheckedOut}
	cancelled := &model.Reservation{Status: model.StatusCancelled}

	assert.True(t, Blocks(confirmed, now))
	assert.True(t, Blocks(checkedIn, now))
	assert.False(t, Blocks(checkedOut, now))
	assert.False(t, Blocks(cancelled, now))
}

func TestBlocksSoftHold(t *testing.T) {
	now := time.Date(2024, 9, 20, 12, 0, 0, 0, time.UTC)
	pending := &model.Reservation{Status: model.StatusPending, HoldExpiresAt: now.Add(10 * time.Minute)}

	// An unexpired hold blocks; once the deadline passes it no longer does,
	// even though the row itself is untouched.
	assert.True(t, Blocks(pending, now))
	assert.False(t, Blocks(pending, now.Add(10*time.Minute)))
	assert.False(t, Blocks(pending, now.Add(time.Hour)))
}

func TestConflictsExcludesSelfAndExpiredHolds(t *testing.T) {
	now := time.Date(2024, 9, 20, 12, 0, 0, 0, time.UTC)
	existing := []model.Reservation{
		{
			Reference: "RSV-A",
			Status:    model.StatusConfirmed,
			CheckIn:   date(2024, 9, 21),
			CheckOut:  date(2024, 9, 23),
		},
		{
			Reference:     "RSV-B",
			Status:        model.StatusPending,
			CheckIn:       date(2024, 9, 22),
			CheckOut:      date(2024, 9, 24),
			HoldExpiresAt: now.Add(-time.Minute), // lapsed hold
		},
		{
			Reference:     "RSV-C",
			Status:        model.StatusPending,
			CheckIn:       date(2024, 9, 22),
			CheckOut:      date(2024, 9, 24),
			HoldExpiresAt: now.Add(5 * time.Minute),
		},
	}

	req := NewInterval(date(2024, 9, 22), date(2024, 9, 24))

	refs := Conflicts(existing, req, "", now)
	require.Equal(t, []string{"RSV-A", "RSV-C"}, refs)

	// Excluding a reference removes that row from consideration.
	refs = Conflicts(existing, req, "RSV-A", now)
	require.Equal(t, []string{"RSV-C"}, refs)

	// A request outside every stay is free.
	free, refs := IsFree(existing, NewInterval(date(2024, 10, 1), date(2024, 10, 2)), "", now)
	assert.True(t, free)
	assert.Empty(t, refs)
}

func TestIntervalNights(t *testing.T) {
	iv := NewInterval(date(2024, 9, 21), date(2024, 9, 23))
	require.True(t, iv.Valid())
	assert.Equal(t, 2, iv.Nights())

	assert.False(t, NewInterval(date(2024, 9, 23), date(2024, 9, 21)).Valid())
	assert.False(t, NewInterval(date(2024, 9, 21), date(2024, 9, 21)).Valid())
}
