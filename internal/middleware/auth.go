package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/session"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

// Context keys set by Auth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
)

// Auth resolves the caller from an "Authorization: Bearer <jwt>" header or,
// failing that, from the session cookie.  On success the user id (uint64)
// is stored under CtxUserID.  When required is true anonymous requests are
// rejected with 401; otherwise they pass through untouched.
func Auth(secret string, sessions *session.Manager, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h := c.Request().Header.Get("Authorization"); h != "" {
				raw, ok := strings.CutPrefix(h, "Bearer ")
				if !ok {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
				}
				uid, claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
				if err != nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				c.Set(CtxUserID, uid)
				c.Set(CtxUsername, claims.Username)
				return next(c)
			}
			if sessions != nil {
				if uid, ok := sessions.UserID(c.Request()); ok {
					c.Set(CtxUserID, uid)
					return next(c)
				}
			}
			if required {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(secret string, sessions *session.Manager) echo.MiddlewareFunc {
	return Auth(secret, sessions, true)
}

// OptionalAuth identifies the caller when possible and never rejects.
func OptionalAuth(secret string, sessions *session.Manager) echo.MiddlewareFunc {
	return Auth(secret, sessions, false)
}
