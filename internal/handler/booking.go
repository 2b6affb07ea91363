package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/middleware"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
	"github.com/iliyamo/dog-playground-booking/internal/service"
)

// BookingHandler books slots and manages the caller's bookings.
type BookingHandler struct {
	Booker   Booker
	Bookings BookingStore
	Loc      *time.Location
	Log      *slog.Logger
	Now      func() time.Time
}

func NewBookingHandler(b Booker, s BookingStore, loc *time.Location, log *slog.Logger) *BookingHandler {
	return &BookingHandler{Booker: b, Bookings: s, Loc: loc, Log: log, Now: time.Now}
}

// bookReq uses pointers so a missing field can be told apart from zero.
type bookReq struct {
	PlaygroundID *uint64 `json:"playground_id"`
	DogID        *uint64 `json:"dog_id"`
	SlotHour     *int    `json:"slot_hour"`
	SlotDate     string  `json:"slot_date"`
}

// writeServiceError maps booking service errors onto HTTP responses.
func writeServiceError(c echo.Context, log *slog.Logger, err error) error {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return errJSON(c, http.StatusNotFound, "not found")
	case service.KindForbidden:
		return errJSON(c, http.StatusForbidden, service.ErrForbidden.Error())
	case service.KindConflict:
		return errJSON(c, http.StatusConflict, service.ErrConflict.Error())
	case service.KindAdmission:
		return errJSON(c, http.StatusConflict, service.ErrAdmission.Error())
	case service.KindUnavailable:
		c.Response().Header().Set("Retry-After", "1")
		return errJSON(c, http.StatusServiceUnavailable, "slot is busy, try again")
	case service.KindIntegrity:
		log.Error("data integrity error", "err", err)
		return errJSON(c, http.StatusInternalServerError, service.ErrIntegrity.Error())
	default:
		log.Error("booking service error", "err", err)
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
}

// Book books one hour at one playground for one of the caller's dogs.
func (h *BookingHandler) Book(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errJSON(c, http.StatusUnauthorized, "not authorized")
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.PlaygroundID == nil || req.DogID == nil || req.SlotHour == nil {
		return errJSON(c, http.StatusBadRequest, "invalid playground, hour, or dog")
	}
	if !h.Booker.Config().ValidHour(*req.SlotHour) {
		return errJSON(c, http.StatusBadRequest, "invalid slot hour")
	}
	date, err := parseDate(req.SlotDate, h.Now(), h.Loc)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid slot date")
	}

	b, err := h.Booker.Book(c.Request().Context(), service.BookingRequest{
		PlaygroundID: *req.PlaygroundID,
		DogID:        *req.DogID,
		UserID:       uid,
		Date:         date,
		Hour:         *req.SlotHour,
	})
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":    true,
		"booking_id": b.ID,
		"start_time": b.StartTime,
		"end_time":   b.EndTime,
	})
}

// Mine lists the caller's bookings, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errJSON(c, http.StatusUnauthorized, "not authorized")
	}
	ctx, cancel := timeout(c)
	defer cancel()
	rows, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		h.Log.Error("list bookings failed", "user_id", uid, "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, rows)
}

// Cancel releases one of the caller's confirmed bookings.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errJSON(c, http.StatusUnauthorized, "not authorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return errJSON(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := timeout(c)
	defer cancel()

	err := h.Bookings.Cancel(ctx, id, uid)
	switch {
	case err == nil:
		h.Log.Info("booking cancelled", "booking_id", id, "user_id", uid)
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	case errors.Is(err, repository.ErrBookingNotFound):
		return errJSON(c, http.StatusNotFound, "booking not found")
	case errors.Is(err, repository.ErrForbidden):
		return errJSON(c, http.StatusForbidden, "booking belongs to another user")
	case errors.Is(err, repository.ErrConflict):
		return errJSON(c, http.StatusConflict, "booking already cancelled")
	default:
		h.Log.Error("cancel booking failed", "booking_id", id, "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
}
