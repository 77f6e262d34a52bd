package service

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

func billFixture() (*model.Reservation, *model.Room) {
	room := &model.Room{
		ID:               1,
		Number:           "204",
		Type:             "double",
		NightlyRateCents: 10_000,
		Capacity:         2,
	}
	res := &model.Reservation{
		Reference:       "RSV-20260921-4F2A9C",
		RoomID:          1,
		Guest:           model.Guest{Name: "Dana Mercer"},
		CheckIn:         time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC),
		CheckOut:        time.Date(2026, 9, 23, 0, 0, 0, 0, time.UTC),
		Adults:          2,
		Status:          model.StatusCheckedIn,
		PaymentStatus:   model.PaymentUnpaid,
		BaseAmountCents: 20_000,
	}
	res.RecomputeTotal()
	return res, room
}

func TestGenerateBillBaseOnly(t *testing.T) {
	res, room := billFixture()

	bill := GenerateBill(res, room, 0)

	assert.Equal(t, "RSV-20260921-4F2A9C", bill.Reference)
	assert.Equal(t, "204", bill.RoomNumber)
	assert.Equal(t, 2, bill.Nights)
	assert.Equal(t, int64(10_000), bill.NightlyRateCents)
	assert.Equal(t, int64(20_000), bill.BaseAmountCents)
	assert.Empty(t, bill.Lines)
	assert.Equal(t, int64(20_000), bill.SubtotalCents)
	assert.Zero(t, bill.ServiceChargeCents)
	assert.Equal(t, int64(20_000), bill.GrandTotalCents)
}

func TestGenerateBillWithCharges(t *testing.T) {
	res, room := billFixture()
	res.Charges = []model.Charge{
		{Description: "minibar", Category: model.ChargeMinibar, Quantity: 1, UnitPriceCents: 1_500, Position: 1},
	}
	res.RecomputeTotal()
	require.Equal(t, int64(21_500), res.TotalAmountCents)

	bill := GenerateBill(res, room, 0)

	require.Len(t, bill.Lines, 1)
	assert.Equal(t, int64(1_500), bill.Lines[0].TotalCents)
	assert.Equal(t, int64(21_500), bill.SubtotalCents)
	assert.Equal(t, int64(21_500), bill.GrandTotalCents)
}

// The stored total must always equal base plus the sum of charge lines, no
// matter what sequence of charges was appended.
func TestRecomputeTotalMatchesComponents(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []model.ChargeCategory{
		model.ChargeMinibar, model.ChargeLaundry, model.ChargeRoomService,
		model.ChargeLateCheckout, model.ChargeDamages, model.ChargeOther,
	}

	for i := 0; i < 200; i++ {
		res, _ := billFixture()
		var want int64 = res.BaseAmountCents
		n := rng.Intn(10)
		for j := 0; j < n; j++ {
			ch := model.Charge{
				Description:    "line",
				Category:       categories[rng.Intn(len(categories))],
				Quantity:       1 + rng.Intn(5),
				UnitPriceCents: int64(rng.Intn(50_000)),
				Position:       j + 1,
			}
			want += ch.LineTotalCents()
			res.Charges = append(res.Charges, ch)
			res.RecomputeTotal()
		}
		assert.Equal(t, want, res.TotalAmountCents)
	}
}

// Regenerating a bill from unchanged reservation state must produce
// byte-identical output.
func TestGenerateBillIdempotent(t *testing.T) {
	res, room := billFixture()
	res.Charges = []model.Charge{
		{Description: "laundry", Category: model.ChargeLaundry, Quantity: 2, UnitPriceCents: 800, Position: 1},
		{Description: "minibar", Category: model.ChargeMinibar, Quantity: 1, UnitPriceCents: 1_500, Position: 2},
	}
	res.RecomputeTotal()

	first, err := json.Marshal(GenerateBill(res, room, 250))
	require.NoError(t, err)
	second, err := json.Marshal(GenerateBill(res, room, 250))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateBillServiceChargeRounding(t *testing.T) {
	res, room := billFixture()

	// 10% of 20,000 is exact.
	bill := GenerateBill(res, room, 1000)
	assert.Equal(t, int64(2_000), bill.ServiceChargeCents)
	assert.Equal(t, int64(22_000), bill.GrandTotalCents)

	// 10% of 20,005 is 2,000.5; half-up rounds to 2,001.
	res.BaseAmountCents = 20_005
	res.RecomputeTotal()
	bill = GenerateBill(res, room, 1000)
	assert.Equal(t, int64(2_001), bill.ServiceChargeCents)

	// 10% of 20,001 is 2,000.1; rounds down.
	res.BaseAmountCents = 20_001
	res.RecomputeTotal()
	bill = GenerateBill(res, room, 1000)
	assert.Equal(t, int64(2_000), bill.ServiceChargeCents)
}

func TestValidateCharge(t *testing.T) {
	valid := model.Charge{Description: "minibar", Category: model.ChargeMinibar, Quantity: 1, UnitPriceCents: 500}
	assert.NoError(t, validateCharge(valid))

	cases := []struct {
		name string
		mut  func(ch *model.Charge)
	}{
		{"empty description", func(ch *model.Charge) { ch.Description = "  " }},
		{"unknown category", func(ch *model.Charge) { ch.Category = "spa" }},
		{"zero quantity", func(ch *model.Charge) { ch.Quantity = 0 }},
		{"negative price", func(ch *model.Charge) { ch.UnitPriceCents = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := valid
			tc.mut(&ch)
			var vErr *ValidationError
			assert.ErrorAs(t, validateCharge(ch), &vErr)
		})
	}
}
