package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/availability"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// StaffHandler serves the front-desk API: walk-in bookings, lifecycle
// transitions, ad-hoc charges, payment settlement and bill retrieval.
type StaffHandler struct {
	Svc          *service.ReservationService
	Reservations *repository.ReservationRepo
}

func NewStaffHandler(svc *service.ReservationService, reservations *repository.ReservationRepo) *StaffHandler {
	return &StaffHandler{Svc: svc, Reservations: reservations}
}

// CreateWalkIn books a room for a guest without a portal account.  The
// reservation starts as a pending hold exactly like a portal booking;
// front desks typically confirm it in the next call.
func (h *StaffHandler) CreateWalkIn(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in must be YYYY-MM-DD"})
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be YYYY-MM-DD"})
	}

	res, err := h.Svc.Create(c.Request().Context(), service.CreateReservationInput{
		RoomID:   req.RoomID,
		UserID:   0, // walk-ins have no portal account
		Guest:    model.Guest{Name: req.GuestName, Email: req.GuestEmail, Phone: req.GuestPhone},
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Adults:   req.Adults,
		Children: req.Children,
		Actor:    actorLabel(c),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, newReservationResp(res))
}

// Get returns any reservation by reference.
func (h *StaffHandler) Get(c echo.Context) error {
	res, err := h.Reservations.GetByReference(c.Request().Context(), c.Param("ref"))
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	return c.JSON(http.StatusOK, newReservationResp(res))
}

func (h *StaffHandler) transition(c echo.Context, target model.ReservationStatus) error {
	var req cancelReq
	_ = c.Bind(&req)
	res, err := h.Svc.ChangeStatus(c.Request().Context(), c.Param("ref"), target, service.TransitionContext{
		Actor:  actorLabel(c),
		Reason: req.Reason,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationResp(res))
}

// Confirm moves a pending hold to confirmed.
func (h *StaffHandler) Confirm(c echo.Context) error {
	return h.transition(c, model.StatusConfirmed)
}

// CheckIn marks the guest as physically arrived.
func (h *StaffHandler) CheckIn(c echo.Context) error {
	return h.transition(c, model.StatusCheckedIn)
}

// CheckOut finalizes the stay; fails with 402 while the bill is unpaid.
func (h *StaffHandler) CheckOut(c echo.Context) error {
	return h.transition(c, model.StatusCheckedOut)
}

// Cancel voids a pending or confirmed reservation with a reason.
func (h *StaffHandler) Cancel(c echo.Context) error {
	return h.transition(c, model.StatusCancelled)
}

type addChargeReq struct {
	Description    string `json:"description"`
	Category       string `json:"category"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// AddCharge appends an ad-hoc charge (minibar, laundry, ...) to an open
// reservation and returns it with the recomputed total.
func (h *StaffHandler) AddCharge(c echo.Context) error {
	var req addChargeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.Svc.AddCharge(c.Request().Context(), c.Param("ref"), model.Charge{
		Description:    req.Description,
		Category:       model.ChargeCategory(req.Category),
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
	}, actorLabel(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, newReservationResp(res))
}

type setPaymentReq struct {
	Status string `json:"status"` // paid | unpaid
}

// SetPayment records settlement (or reverses it, before check-out).
func (h *StaffHandler) SetPayment(c echo.Context) error {
	var req setPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.Svc.SetPaymentStatus(c.Request().Context(), c.Param("ref"), model.PaymentStatus(req.Status), actorLabel(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationResp(res))
}

// GetBill returns the itemized bill for any reservation.
func (h *StaffHandler) GetBill(c echo.Context) error {
	bill, err := h.Svc.GetBill(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, bill)
}

// ListForRoom returns every reservation touching a room within
// ?from=YYYY-MM-DD&to=YYYY-MM-DD, for the occupancy board.
func (h *StaffHandler) ListForRoom(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	iv := availability.NewInterval(from, to)
	if !iv.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be after from"})
	}

	list, err := h.Reservations.ListForRoom(c.Request().Context(), roomID, iv)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	out := make([]reservationResp, 0, len(list))
	for i := range list {
		out = append(out, newReservationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "reservations": out})
}
