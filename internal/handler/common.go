// Package handler contains the HTTP layer: request DTOs, response shaping
// and the mapping from service errors to status codes.  Handlers never
// touch reservation state directly; every mutation goes through the
// reservation service.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// currentUID extracts the authenticated user ID set by the JWT middleware.
// Numeric JWT claims decode as float64.
func currentUID(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v)
	case uint64:
		return v
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func currentRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// actorLabel identifies the caller in audit events: "user:<id>" for portal
// accounts, "staff:<id>" for staff.
func actorLabel(c echo.Context) string {
	uid := currentUID(c)
	if uid == 0 {
		return "system"
	}
	if currentRole(c) == "STAFF" {
		return "staff:" + strconv.FormatUint(uid, 10)
	}
	return "user:" + strconv.FormatUint(uid, 10)
}

// parseDate parses a YYYY-MM-DD value in UTC.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// writeServiceError translates the service error taxonomy into HTTP
// responses.  Validation problems are 400, missing entities 404, ownership
// violations 403, an unsettled bill at check-out 402, and every flavor of
// conflict (availability, transition, lost race) 409.
func writeServiceError(c echo.Context, err error) error {
	var (
		vErr *service.ValidationError
		uErr *service.RoomUnavailableError
		tErr *service.InvalidTransitionError
		pErr *service.PaymentRequiredError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "validation", "field": vErr.Field, "reason": vErr.Reason,
		})
	case errors.As(err, &uErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "room_unavailable", "room_id": uErr.RoomID, "conflicts": uErr.Conflicts,
		})
	case errors.As(err, &tErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "invalid_transition", "from": tErr.From, "to": tErr.To,
		})
	case errors.As(err, &pErr):
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error": "payment_required", "reference": pErr.Reference, "outstanding_cents": pErr.OutstandingCents,
		})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrConflictOrUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict, retry once"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// ----- shared response DTOs -----

type chargeResp struct {
	Description    string `json:"description"`
	Category       string `json:"category"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type reservationResp struct {
	Reference        string       `json:"reference"`
	RoomID           uint64       `json:"room_id"`
	GuestName        string       `json:"guest_name"`
	GuestEmail       string       `json:"guest_email,omitempty"`
	GuestPhone       string       `json:"guest_phone,omitempty"`
	CheckIn          string       `json:"check_in"`
	CheckOut         string       `json:"check_out"`
	Nights           int          `json:"nights"`
	Adults           int          `json:"adults"`
	Children         int          `json:"children"`
	Status           string       `json:"status"`
	PaymentStatus    string       `json:"payment_status"`
	BaseAmountCents  int64        `json:"base_amount_cents"`
	TotalAmountCents int64        `json:"total_amount_cents"`
	Charges          []chargeResp `json:"charges"`
	HoldExpiresAt    string       `json:"hold_expires_at,omitempty"`
	CancelReason     string       `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

func newReservationResp(r *model.Reservation) reservationResp {
	out := reservationResp{
		Reference:        r.Reference,
		RoomID:           r.RoomID,
		GuestName:        r.Guest.Name,
		GuestEmail:       r.Guest.Email,
		GuestPhone:       r.Guest.Phone,
		CheckIn:          r.CheckIn.Format("2006-01-02"),
		CheckOut:         r.CheckOut.Format("2006-01-02"),
		Nights:           r.Nights(),
		Adults:           r.Adults,
		Children:         r.Children,
		Status:           string(r.Status),
		PaymentStatus:    string(r.PaymentStatus),
		BaseAmountCents:  r.BaseAmountCents,
		TotalAmountCents: r.TotalAmountCents,
		Charges:          make([]chargeResp, 0, len(r.Charges)),
		CancelReason:     r.CancelReason,
		CreatedAt:        r.CreatedAt,
	}
	if r.Status == model.StatusPending && !r.HoldExpiresAt.IsZero() {
		out.HoldExpiresAt = r.HoldExpiresAt.UTC().Format(time.RFC3339)
	}
	for _, ch := range r.Charges {
		out.Charges = append(out.Charges, chargeResp{
			Description:    ch.Description,
			Category:       string(ch.Category),
			Quantity:       ch.Quantity,
			UnitPriceCents: ch.UnitPriceCents,
			LineTotalCents: ch.LineTotalCents(),
		})
	}
	return out
}

type roomResp struct {
	ID               uint64 `json:"id"`
	Number           string `json:"number"`
	Type             string `json:"type"`
	NightlyRateCents int64  `json:"nightly_rate_cents"`
	Capacity         int    `json:"capacity"`
	Status           string `json:"status"`
}

func newRoomResp(rm *model.Room) roomResp {
	return roomResp{
		ID:               rm.ID,
		Number:           rm.Number,
		Type:             rm.Type,
		NightlyRateCents: rm.NightlyRateCents,
		Capacity:         rm.Capacity,
		Status:           string(rm.Status),
	}
}
