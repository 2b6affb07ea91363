package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/middleware"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
)

type DogHandler struct {
	Dogs DogStore
	Log  *slog.Logger
}

func NewDogHandler(d DogStore, log *slog.Logger) *DogHandler {
	return &DogHandler{Dogs: d, Log: log}
}

type addDogReq struct {
	DogName     string `json:"dog_name"`
	DogBreed    string `json:"dog_breed"`
	DogCategory string `json:"dog_category"`
}

// List returns every dog.
func (h *DogHandler) List(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()
	dogs, err := h.Dogs.ListAll(ctx)
	if err != nil {
		h.Log.Error("list dogs failed", "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, dogs)
}

// Mine returns the dogs of the authenticated user.
func (h *DogHandler) Mine(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errJSON(c, http.StatusUnauthorized, "not authorized")
	}
	ctx, cancel := timeout(c)
	defer cancel()
	dogs, err := h.Dogs.ListByUser(ctx, uid)
	if err != nil {
		h.Log.Error("list user dogs failed", "user_id", uid, "err", err)
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, dogs)
}

// Add registers another dog for the authenticated user.
func (h *DogHandler) Add(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errJSON(c, http.StatusUnauthorized, "not authorized")
	}
	var req addDogReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.DogName)
	code := strings.ToUpper(strings.TrimSpace(req.DogCategory))
	if name == "" || code == "" {
		return errJSON(c, http.StatusBadRequest, "missing required fields")
	}
	if _, err := admission.ParseCategory(code); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid dog category")
	}

	nd := model.NewDog{Name: name, CategoryCode: code}
	if b := strings.TrimSpace(req.DogBreed); b != "" {
		nd.Breed = &b
	}

	ctx, cancel := timeout(c)
	defer cancel()
	id, err := h.Dogs.Create(ctx, uid, nd)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return errJSON(c, http.StatusBadRequest, "dog category not found")
	}
	if err != nil {
		h.Log.Error("create dog failed", "user_id", uid, "err", err)
		return errJSON(c, http.StatusInternalServerError, "create dog failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "dog_id": id})
}
