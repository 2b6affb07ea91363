// Package session keeps the signed browser session cookie used by the web
// front end alongside Bearer tokens.
package session

import (
	"net/http"
	"strconv"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

// CookieName is the name of the session cookie.
const CookieName = "dogpark_session"

type Manager struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewManager signs cookies with hashKey and, when blockKey is non-empty,
// encrypts them too.  secure marks the cookie HTTPS-only.
func NewManager(hashKey, blockKey []byte, maxAge int, secure bool) *Manager {
	sc := securecookie.New(hashKey, blockKey)
	if maxAge > 0 {
		sc.MaxAge(maxAge)
	}
	return &Manager{sc: sc, secure: secure}
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name: CookieName, Value: value, Path: "/", MaxAge: maxAge,
		HttpOnly: true, Secure: m.secure, SameSite: http.SameSiteLaxMode,
	}
}

// Set writes a session cookie for userID.
func (m *Manager) Set(c echo.Context, userID uint64) error {
	value := map[string]string{"uid": strconv.FormatUint(userID, 10)}
	encoded, err := m.sc.Encode(CookieName, value)
	if err != nil {
		return err
	}
	c.SetCookie(m.cookie(encoded, 0))
	return nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(m.cookie("", -1))
}

// UserID decodes the session cookie of the request.  Missing, tampered or
// expired cookies report false.
func (m *Manager) UserID(r *http.Request) (uint64, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return 0, false
	}
	value := map[string]string{}
	if err := m.sc.Decode(CookieName, ck.Value, &value); err != nil {
		return 0, false
	}
	uid, err := strconv.ParseUint(value["uid"], 10, 64)
	if err != nil || uid == 0 {
		return 0, false
	}
	return uid, true
}
