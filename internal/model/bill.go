package model

// BillLine is one itemized row of a bill projection.
type BillLine struct {
	Description    string         `json:"description"`
	Category       ChargeCategory `json:"category"`
	Quantity       int            `json:"quantity"`
	UnitPriceCents int64          `json:"unit_price_cents"`
	TotalCents     int64          `json:"total_cents"`
}

// Bill is a read-only projection of a reservation's charges and totals at a
// point in time.  It is derived, never persisted: regenerating it from the
// same reservation state must produce identical output, which is why the
// projection carries no generation timestamp.  External renderers turn a
// Bill into a PDF or an email; the core's obligation ends here.
type Bill struct {
	Reference          string        `json:"reference"`
	GuestName          string        `json:"guest_name"`
	RoomNumber         string        `json:"room_number"`
	CheckIn            string        `json:"check_in"`  // YYYY-MM-DD
	CheckOut           string        `json:"check_out"` // YYYY-MM-DD
	Nights             int           `json:"nights"`
	NightlyRateCents   int64         `json:"nightly_rate_cents"`
	BaseAmountCents    int64         `json:"base_amount_cents"`
	Lines              []BillLine    `json:"lines"`
	SubtotalCents      int64         `json:"subtotal_cents"`
	ServiceChargeCents int64         `json:"service_charge_cents"`
	GrandTotalCents    int64         `json:"grand_total_cents"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
}
