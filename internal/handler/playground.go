package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
	"github.com/iliyamo/dog-playground-booking/internal/service"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

// PlaygroundHandler serves the public catalogue and the per-day slot view.
type PlaygroundHandler struct {
	Playgrounds PlaygroundStore
	Dogs        DogStore
	Booker      Booker
	Loc         *time.Location
	Log         *slog.Logger
	Now         func() time.Time
}

func NewPlaygroundHandler(p PlaygroundStore, d DogStore, b Booker, loc *time.Location, log *slog.Logger) *PlaygroundHandler {
	return &PlaygroundHandler{Playgrounds: p, Dogs: d, Booker: b, Loc: loc, Log: log, Now: time.Now}
}

// PlaygroundDetails is a catalogue row decorated for display together with
// the slot view of one day.
type PlaygroundDetails struct {
	model.Playground
	PhotoURL          string               `json:"photo_url"`
	Date              string               `json:"date"`
	RequestedCategory admission.Category   `json:"requested_category"`
	Slots             []admission.SlotView `json:"slots"`
}

// flag is on for any non-empty value except an explicit false ("0",
// "false", ...).
func flag(c echo.Context, name string) bool {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	return err != nil || v
}

func filterFrom(c echo.Context) model.PlaygroundFilter {
	return model.PlaygroundFilter{
		District: strings.TrimSpace(c.QueryParam("district")),
		Lighting: flag(c, "lighting"),
		Fencing:  flag(c, "fencing"),
		Elements: flag(c, "elements"),
	}
}

// List returns map markers of every playground matching the filter.
func (h *PlaygroundHandler) List(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	rows, err := h.Playgrounds.ListMarkers(ctx, filterFrom(c))
	if err != nil {
		h.Log.Error("list playgrounds failed", "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, rows)
}

// Search lists playgrounds of one district; the district is required.
func (h *PlaygroundHandler) Search(c echo.Context) error {
	f := filterFrom(c)
	if f.District == "" {
		return errJSON(c, http.StatusBadRequest, "district is required")
	}
	ctx, cancel := timeout(c)
	defer cancel()
	rows, err := h.Playgrounds.Search(ctx, f)
	if err != nil {
		h.Log.Error("search playgrounds failed", "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *PlaygroundHandler) Districts(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	rows, err := h.Playgrounds.Districts(ctx)
	if err != nil {
		h.Log.Error("list districts failed", "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, rows)
}

// Categories lists the dog categories with their display labels.
func (h *PlaygroundHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Booker.Config().Labels())
}

// Diagnostics reports which database the service talks to and how much of
// the catalogue is loaded.
func (h *PlaygroundHandler) Diagnostics(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	st, err := h.Playgrounds.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, st)
}

// requestedCategory resolves the category the slot view is computed for.
// The category of dog_id wins; otherwise the category parameter is used and
// anything unknown falls back to STANDARD.
func (h *PlaygroundHandler) requestedCategory(c echo.Context) admission.Category {
	if id, err := strconv.ParseUint(c.QueryParam("dog_id"), 10, 64); err == nil && id != 0 {
		ctx, cancel := timeout(c)
		defer cancel()
		if dog, err := h.Dogs.GetByID(ctx, id); err == nil {
			if cat, err := admission.ParseCategory(dog.CategoryCode); err == nil {
				return cat
			}
		}
	}
	if cat, err := admission.ParseCategory(c.QueryParam("category")); err == nil {
		return cat
	}
	return admission.Standard
}

// parseDate reads a YYYY-MM-DD value in loc; empty means today.
func parseDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return service.Day(now.In(loc)), nil
	}
	return time.ParseInLocation(time.DateOnly, raw, loc)
}

// Details returns the playground row with its cleaned park name, photo
// URL and the 24 slot statuses of the requested day.
func (h *PlaygroundHandler) Details(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return errJSON(c, http.StatusBadRequest, "invalid playground id")
	}
	date, err := parseDate(c.QueryParam("date"), h.Now(), h.Loc)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid date")
	}
	cat := h.requestedCategory(c)

	ctx, cancel := timeout(c)
	defer cancel()

	p, err := h.Playgrounds.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPlaygroundNotFound) {
		return errJSON(c, http.StatusNotFound, "playground not found")
	}
	if err != nil {
		h.Log.Error("load playground failed", "playground_id", id, "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}

	slots, err := h.Booker.SlotStatuses(ctx, id, date, cat)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}

	out := PlaygroundDetails{
		Playground:        p,
		Date:              date.Format(time.DateOnly),
		RequestedCategory: cat,
		Slots:             slots,
	}
	out.ParkName = utils.CleanParkNamePtr(p.ParkName)
	if p.PhotoID != nil {
		out.PhotoURL = utils.PhotoURL(*p.PhotoID)
	}
	return c.JSON(http.StatusOK, out)
}
