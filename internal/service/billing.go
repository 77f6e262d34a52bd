package service

import (
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// validateCharge checks an ad-hoc charge before it enters the ledger.
// Quantity must be at least 1, unit price non-negative, the category one of
// the enumerated tags, and the description non-empty.
func validateCharge(ch model.Charge) error {
	if strings.TrimSpace(ch.Description) == "" {
		return validationErr("description", "is required")
	}
	if !model.ValidChargeCategory(ch.Category) {
		return validationErr("category", "is not a known charge category")
	}
	if ch.Quantity < 1 {
		return validationErr("quantity", "must be at least 1")
	}
	if ch.UnitPriceCents < 0 {
		return validationErr("unit_price_cents", "must not be negative")
	}
	return nil
}

// GenerateBill projects a reservation into a Bill.  The projection is a
// pure function of the reservation, its room and the service-charge rate:
// calling it any number of times on unchanged input yields identical output,
// which makes PDF or email regeneration safe.
//
// All arithmetic stays in integer minor currency units.  The service charge
// is expressed in basis points and is the single rounding point (half-up),
// applied once at the grand-total line; charges and the base amount are
// accumulated exactly.
func GenerateBill(res *model.Reservation, room *model.Room, serviceChargeBps int64) model.Bill {
	lines := make([]model.BillLine, 0, len(res.Charges))
	for _, ch := range res.Charges {
		lines = append(lines, model.BillLine{
			Description:    ch.Description,
			Category:       ch.Category,
			Quantity:       ch.Quantity,
			UnitPriceCents: ch.UnitPriceCents,
			TotalCents:     ch.LineTotalCents(),
		})
	}

	subtotal := res.BaseAmountCents + res.ChargesTotalCents()
	var serviceCharge int64
	if serviceChargeBps > 0 {
		serviceCharge = (subtotal*serviceChargeBps + 5000) / 10000
	}

	return model.Bill{
		Reference:          res.Reference,
		GuestName:          res.Guest.Name,
		RoomNumber:         room.Number,
		CheckIn:            res.CheckIn.Format("2006-01-02"),
		CheckOut:           res.CheckOut.Format("2006-01-02"),
		Nights:             res.Nights(),
		NightlyRateCents:   room.NightlyRateCents,
		BaseAmountCents:    res.BaseAmountCents,
		Lines:              lines,
		SubtotalCents:      subtotal,
		ServiceChargeCents: serviceCharge,
		GrandTotalCents:    subtotal + serviceCharge,
		PaymentStatus:      res.PaymentStatus,
	}
}
