// Package handler exposes the HTTP API.  Handlers depend on small
// interfaces satisfied by the repositories and the booking service so they
// can be exercised with in-memory fakes.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/service"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

// Booker is the booking service as seen by the HTTP layer.
type Booker interface {
	Config() admission.Config
	SlotStatuses(ctx context.Context, playgroundID uint64, date time.Time, requested admission.Category) ([]admission.SlotView, error)
	Book(ctx context.Context, req service.BookingRequest) (model.Booking, error)
}

// PlaygroundStore reads the playground catalogue.
type PlaygroundStore interface {
	ListMarkers(ctx context.Context, f model.PlaygroundFilter) ([]model.PlaygroundMarker, error)
	Search(ctx context.Context, f model.PlaygroundFilter) ([]model.PlaygroundSummary, error)
	Districts(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id uint64) (model.Playground, error)
	Stats(ctx context.Context) (model.PlaygroundStats, error)
}

// DogStore reads and creates dogs.
type DogStore interface {
	ListAll(ctx context.Context) ([]model.Dog, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Dog, error)
	GetByID(ctx context.Context, id uint64) (model.Dog, error)
	Create(ctx context.Context, userID uint64, nd model.NewDog) (uint64, error)
}

// BookingStore lists and cancels a user's bookings.
type BookingStore interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	Cancel(ctx context.Context, bookingID, userID uint64) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateWithDog(ctx context.Context, username, email, password string, cost int, dog model.NewDog) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists refresh-token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// JSONSerializer plugs json-iterator into echo's Bind and JSON helpers.
type JSONSerializer struct{}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err)).SetInternal(err)
	}
	return nil
}

func errJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func timeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
