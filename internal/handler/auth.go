package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/config"
	"github.com/iliyamo/dog-playground-booking/internal/middleware"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
	"github.com/iliyamo/dog-playground-booking/internal/session"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Sessions *session.Manager
	Log      *slog.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, s *session.Manager, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DogName     string `json:"dog_name"`
	DogBreed    string `json:"dog_breed"`
	DogCategory string `json:"dog_category"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
type authResp struct {
	Success bool      `json:"success"`
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue signs an access token, stores a fresh refresh token and sets the
// session cookie.
func (h *AuthHandler) issue(ctx context.Context, c echo.Context, u userPart) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	if h.Sessions != nil {
		if err := h.Sessions.Set(c, u.ID); err != nil {
			return authResp{}, err
		}
	}
	return authResp{
		Success: true,
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Register creates a user together with their first dog and signs them in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = repository.NormalizeEmail(req.Email)
	req.DogName = strings.TrimSpace(req.DogName)
	req.DogCategory = strings.ToUpper(strings.TrimSpace(req.DogCategory))
	if req.Username == "" || req.Email == "" || req.Password == "" || req.DogName == "" || req.DogCategory == "" {
		return errJSON(c, http.StatusBadRequest, "missing required fields")
	}
	if _, err := admission.ParseCategory(req.DogCategory); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid dog category")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return errJSON(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := timeout(c)
	defer cancel()

	dog := model.NewDog{Name: req.DogName, CategoryCode: req.DogCategory}
	if b := strings.TrimSpace(req.DogBreed); b != "" {
		dog.Breed = &b
	}
	uid, err := h.Users.CreateWithDog(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost, dog)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return errJSON(c, http.StatusConflict, "email already exists")
	case errors.Is(err, repository.ErrUsernameExists):
		return errJSON(c, http.StatusConflict, "username already exists")
	case errors.Is(err, repository.ErrCategoryNotFound):
		return errJSON(c, http.StatusBadRequest, "dog category not found")
	case err != nil:
		h.Log.Error("register failed", "err", err)
		return errJSON(c, http.StatusInternalServerError, "create user failed")
	}

	resp, err := h.issue(ctx, c, userPart{ID: uid, Username: req.Username, Email: req.Email})
	if err != nil {
		h.Log.Error("issue tokens failed", "user_id", uid, "err", err)
		return errJSON(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies a username (or email) and password and returns a new
// token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return errJSON(c, http.StatusBadRequest, "missing credentials")
	}

	ctx, cancel := timeout(c)
	defer cancel()

	var u model.User
	var err error
	if strings.Contains(req.Username, "@") {
		u, err = h.Users.GetByEmail(ctx, repository.NormalizeEmail(req.Username))
	} else {
		u, err = h.Users.GetByUsername(ctx, req.Username)
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		h.Log.Error("load user failed", "err", err)
		return errJSON(c, http.StatusInternalServerError, "query failed")
	}
	if err != nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return errJSON(c, http.StatusUnauthorized, "invalid username or password")
	}

	resp, err := h.issue(ctx, c, userPart{ID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		h.Log.Error("issue tokens failed", "user_id", u.ID, "err", err)
		return errJSON(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new pair; the old token is
// revoked in the same transaction.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return errJSON(c, http.StatusBadRequest, "refresh_token required")
	}

	ctx, cancel := timeout(c)
	defer cancel()

	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "issue refresh failed")
	}
	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))
	userID, err := h.Tokens.Rotate(ctx, oldHash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp)
	if errors.Is(err, repository.ErrRefreshInvalid) {
		return errJSON(c, http.StatusUnauthorized, "invalid refresh")
	}
	if err != nil {
		h.Log.Error("rotate refresh failed", "err", err)
		return errJSON(c, http.StatusInternalServerError, "rotate refresh failed")
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errJSON(c, http.StatusUnauthorized, "invalid refresh")
		}
		return errJSON(c, http.StatusInternalServerError, "load user failed")
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, h.Cfg.AccessTTLMin)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "issue access failed")
	}
	return c.JSON(http.StatusOK, authResp{
		Success: true,
		User:    userPart{ID: u.ID, Username: u.Username, Email: u.Email},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// Logout revokes the refresh token in the body or, when there is none and
// the caller is authenticated, every refresh token of the caller.  The
// session cookie is always cleared.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	if h.Sessions != nil {
		h.Sessions.Clear(c)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrRefreshInvalid) {
				return errJSON(c, http.StatusUnauthorized, "invalid refresh token")
			}
			return errJSON(c, http.StatusInternalServerError, "logout failed")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			h.Log.Error("revoke refresh failed", "err", err)
			return errJSON(c, http.StatusInternalServerError, "logout failed")
		}
	} else if uid, ok := middleware.UserID(c); ok {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			h.Log.Error("revoke all refresh failed", "user_id", uid, "err", err)
			return errJSON(c, http.StatusInternalServerError, "logout failed")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errJSON(c, http.StatusUnauthorized, "not authorized")
	}
	ctx, cancel := timeout(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return errJSON(c, http.StatusNotFound, "user not found")
	}
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "load user failed")
	}
	return c.JSON(http.StatusOK, u)
}
