package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// GuestHandler serves the authenticated guest portal: booking a room,
// listing own reservations and cancelling them.  Every read of a single
// reservation enforces ownership; staff accounts pass the check so the
// same endpoints serve the front desk UI.
type GuestHandler struct {
	Svc          *service.ReservationService
	Reservations *repository.ReservationRepo
}

func NewGuestHandler(svc *service.ReservationService, reservations *repository.ReservationRepo) *GuestHandler {
	return &GuestHandler{Svc: svc, Reservations: reservations}
}

type createReservationReq struct {
	RoomID     uint64 `json:"room_id"`
	CheckIn    string `json:"check_in"`  // YYYY-MM-DD
	CheckOut   string `json:"check_out"` // YYYY-MM-DD
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone"`
}

// CreateReservation books a room for the authenticated guest.  On success
// the reservation is a pending soft hold; the client confirms it with a
// follow-up call before the hold expires.
func (h *GuestHandler) CreateReservation(c echo.Context) error {
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
		UserID:   currentUID(c),
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

// MyReservations lists the caller's reservations, newest first.
func (h *GuestHandler) MyReservations(c echo.Context) error {
	uid := currentUID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Reservations.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	out := make([]reservationResp, 0, len(list))
	for i := range list {
		out = append(out, newReservationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// loadOwned fetches the reservation and enforces that the caller owns it.
// Staff bypass the ownership check.
func (h *GuestHandler) loadOwned(c echo.Context) (*model.Reservation, error) {
	res, err := h.Reservations.GetByReference(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return nil, err
	}
	if currentRole(c) != "STAFF" && res.UserID != currentUID(c) {
		return nil, repository.ErrForbidden
	}
	return res, nil
}

// GetReservation returns a single reservation owned by the caller.
func (h *GuestHandler) GetReservation(c echo.Context) error {
	res, err := h.loadOwned(c)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	return c.JSON(http.StatusOK, newReservationResp(res))
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// CancelReservation moves the caller's pending or confirmed reservation to
// cancelled.
func (h *GuestHandler) CancelReservation(c echo.Context) error {
	if _, err := h.loadOwned(c); err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}

	var req cancelReq
	_ = c.Bind(&req)
	res, err := h.Svc.ChangeStatus(c.Request().Context(), c.Param("ref"), model.StatusCancelled, service.TransitionContext{
		Actor:  actorLabel(c),
		Reason: req.Reason,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationResp(res))
}

// GetBill returns the bill projection for the caller's reservation.
func (h *GuestHandler) GetBill(c echo.Context) error {
	if _, err := h.loadOwned(c); err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	bill, err := h.Svc.GetBill(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, bill)
}
