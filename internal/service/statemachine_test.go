package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

func TestTransitionTable(t *testing.T) {
	all := []model.ReservationStatus{
		model.StatusPending,
		model.StatusConfirmed,
		model.StatusCheckedIn,
		model.StatusCheckedOut,
		model.StatusCancelled,
	}

	legal := map[[2]model.ReservationStatus]bool{
		{model.StatusPending, model.StatusConfirmed}:    true,
		{model.StatusPending, model.StatusCancelled}:    true,
		{model.StatusConfirmed, model.StatusCheckedIn}:  true,
		{model.StatusConfirmed, model.StatusCancelled}:  true,
		{model.StatusCheckedIn, model.StatusCheckedOut}: true,
	}

	// Every pair outside the legal set must be rejected, including
	// self-transitions and anything out of a terminal state.
	for _, from := range all {
		for _, to := range all {
			want := legal[[2]model.ReservationStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestValidateTransitionError(t *testing.T) {
	err := ValidateTransition(model.StatusCheckedOut, model.StatusCancelled)
	require.Error(t, err)

	var tErr *InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, model.StatusCheckedOut, tErr.From)
	assert.Equal(t, model.StatusCancelled, tErr.To)

	assert.NoError(t, ValidateTransition(model.StatusPending, model.StatusConfirmed))
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range []model.ReservationStatus{model.StatusCheckedOut, model.StatusCancelled} {
		assert.Empty(t, transitions[from], "state %s must be terminal", from)
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	assert.False(t, CanTransition("nonsense", model.StatusConfirmed))
	assert.False(t, CanTransition(model.StatusPending, "nonsense"))
}
