package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// PublicHandler serves the unauthenticated room-browsing endpoints.  These
// are read-only and sit behind the Redis response cache.
type PublicHandler struct {
	Rooms *repository.RoomRepo
	Svc   *service.ReservationService
}

func NewPublicHandler(rooms *repository.RoomRepo, svc *service.ReservationService) *PublicHandler {
	return &PublicHandler{Rooms: rooms, Svc: svc}
}

// ListRooms returns the room inventory, optionally filtered by ?type= and
// ?min_capacity=.
func (h *PublicHandler) ListRooms(c echo.Context) error {
	minCap := 0
	if s := c.QueryParam("min_capacity"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_capacity"})
		}
		minCap = n
	}
	rooms, err := h.Rooms.List(c.Request().Context(), c.QueryParam("type"), minCap)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	out := make([]roomResp, 0, len(rooms))
	for i := range rooms {
		out = append(out, newRoomResp(&rooms[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// GetRoom returns a single room by ID.
func (h *PublicHandler) GetRoom(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	rm, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}
	return c.JSON(http.StatusOK, newRoomResp(rm))
}

// CheckAvailability answers whether a room is free for ?check_in=YYYY-MM-DD
// &check_out=YYYY-MM-DD, listing the blocking references when it is not.
func (h *PublicHandler) CheckAvailability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	checkIn, err := parseDate(c.QueryParam("check_in"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in must be YYYY-MM-DD"})
	}
	checkOut, err := parseDate(c.QueryParam("check_out"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be YYYY-MM-DD"})
	}

	free, conflicts, err := h.Svc.IsAvailable(c.Request().Context(), id, checkIn, checkOut, "")
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":   id,
		"check_in":  checkIn.Format("2006-01-02"),
		"check_out": checkOut.Format("2006-01-02"),
		"available": free,
		"conflicts": conflicts,
	})
}
