package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// RoomAdminHandler manages the room inventory.  Staff only.
type RoomAdminHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomAdminHandler(rooms *repository.RoomRepo) *RoomAdminHandler {
	return &RoomAdminHandler{Rooms: rooms}
}

type roomReq struct {
	Number           string `json:"number"`
	Type             string `json:"type"`
	NightlyRateCents int64  `json:"nightly_rate_cents"`
	Capacity         int    `json:"capacity"`
}

func (r *roomReq) validate() (string, bool) {
	if strings.TrimSpace(r.Number) == "" {
		return "number is required", false
	}
	if r.NightlyRateCents < 0 {
		return "nightly_rate_cents must not be negative", false
	}
	if r.Capacity < 1 {
		return "capacity must be at least 1", false
	}
	return "", true
}

// CreateRoom adds a room to the inventory.  Duplicate numbers are 409.
func (h *RoomAdminHandler) CreateRoom(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	rm := &model.Room{
		Number:           strings.TrimSpace(req.Number),
		Type:             req.Type,
		NightlyRateCents: req.NightlyRateCents,
		Capacity:         req.Capacity,
		Status:           model.RoomAvailable,
	}
	if err := h.Rooms.Create(c.Request().Context(), rm); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, newRoomResp(rm))
}

// UpdateRoom changes the rate, type or capacity of a room.  Existing
// reservations keep the base amount they were priced at.
func (h *RoomAdminHandler) UpdateRoom(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.NightlyRateCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nightly_rate_cents must not be negative"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be at least 1"})
	}

	rm := &model.Room{
		ID:               id,
		Type:             req.Type,
		NightlyRateCents: req.NightlyRateCents,
		Capacity:         req.Capacity,
	}
	if err := h.Rooms.Update(c.Request().Context(), rm); err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	fresh, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}
	return c.JSON(http.StatusOK, newRoomResp(fresh))
}
