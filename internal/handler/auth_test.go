package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/dog-playground-booking/internal/config"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
	"github.com/iliyamo/dog-playground-booking/internal/session"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

func newAuthHandler() (*AuthHandler, *fakeUsers, *fakeTokens) {
	users := &fakeUsers{byName: map[string]model.User{}}
	tokens := &fakeTokens{stored: map[string]uint64{}}
	cfg := config.Config{JWTSecret: "s3cret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	sessions := session.NewManager([]byte(strings.Repeat("k", 32)), nil, 0, false)
	return NewAuthHandler(cfg, users, tokens, sessions, quiet), users, tokens
}

const registerBody = `{"username":" rex_owner ","email":"Rex@Example.COM","password":"woof-woof",
	"dog_name":"Rex","dog_breed":"","dog_category":"high_risk"}`

func TestRegister_CreatesUserWithDogAndSignsIn(t *testing.T) {
	h, users, tokens := newAuthHandler()

	rec := call(h.Register, http.MethodPost, "/api/register", registerBody, 0)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got authResp
	require.NoError(t, decode(rec, &got))
	assert.True(t, got.Success)
	assert.Equal(t, "rex_owner", got.User.Username)
	assert.Equal(t, "rex@example.com", got.User.Email)

	uid, _, err := utils.ParseAccessToken("s3cret", got.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, got.User.ID, uid)
	assert.Equal(t, got.User.ID, tokens.stored[utils.HashRefreshRaw(got.Refresh.Token)])

	require.Len(t, users.created, 1)
	assert.Equal(t, "HIGH_RISK", users.created[0].CategoryCode)
	assert.Nil(t, users.created[0].Breed)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"missing dog", `{"username":"a","email":"a@b.c","password":"secret1"}`, http.StatusBadRequest},
		{"unknown category", `{"username":"a","email":"a@b.c","password":"secret1","dog_name":"R","dog_category":"WOLF"}`, http.StatusBadRequest},
		{"short password", `{"username":"a","email":"a@b.c","password":"123","dog_name":"R","dog_category":"SMALL"}`, http.StatusBadRequest},
		{"not json", `username=a`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, users, _ := newAuthHandler()
			rec := call(h.Register, http.MethodPost, "/api/register", tc.body, 0)
			assert.Equal(t, tc.status, rec.Code)
			assert.Empty(t, users.created)
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	for err, want := range map[error]string{
		repository.ErrEmailExists:      `{"error":"email already exists"}`,
		repository.ErrUsernameExists:   `{"error":"username already exists"}`,
		repository.ErrCategoryNotFound: `{"error":"dog category not found"}`,
	} {
		h, users, _ := newAuthHandler()
		users.createErr = err
		rec := call(h.Register, http.MethodPost, "/api/register", registerBody, 0)
		if err == repository.ErrCategoryNotFound {
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		} else {
			assert.Equal(t, http.StatusConflict, rec.Code)
		}
		assert.JSONEq(t, want, rec.Body.String())
	}
}

func TestLogin_AndRefreshRotation(t *testing.T) {
	h, _, tokens := newAuthHandler()
	require.Equal(t, http.StatusCreated, call(h.Register, http.MethodPost, "/api/register", registerBody, 0).Code)

	rec := call(h.Login, http.MethodPost, "/api/login", `{"username":"rex_owner","password":"wrong-pass"}`, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = call(h.Login, http.MethodPost, "/api/login", `{"username":"nobody","password":"woof-woof"}`, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = call(h.Login, http.MethodPost, "/api/login", `{"username":"rex_owner"}`, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.Login, http.MethodPost, "/api/login", `{"username":"rex_owner","password":"woof-woof"}`, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var login authResp
	require.NoError(t, decode(rec, &login))

	body := `{"refresh_token":"` + login.Refresh.Token + `"}`
	rec = call(h.Refresh, http.MethodPost, "/api/refresh", body, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed authResp
	require.NoError(t, decode(rec, &refreshed))
	assert.NotEqual(t, login.Refresh.Token, refreshed.Refresh.Token)
	assert.Contains(t, tokens.stored, utils.HashRefreshRaw(refreshed.Refresh.Token))

	rec = call(h.Refresh, http.MethodPost, "/api/refresh", body, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RevokesAndClearsCookie(t *testing.T) {
	h, _, tokens := newAuthHandler()
	tokens.stored[utils.HashRefreshRaw("abc")] = 42

	rec := call(h.Logout, http.MethodPost, "/api/logout", `{"refresh_token":"abc"}`, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{utils.HashRefreshRaw("abc")}, tokens.revoked)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)

	rec = call(h.Logout, http.MethodPost, "/api/logout", `{"refresh_token":"abc"}`, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(h.Logout, http.MethodPost, "/api/logout", "", 42)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint64{42}, tokens.allFor)

	rec = call(h.Logout, http.MethodPost, "/api/logout", "", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, tokens.allFor, 1)
}

func TestLogin_ByEmail(t *testing.T) {
	h, _, _ := newAuthHandler()
	require.Equal(t, http.StatusCreated, call(h.Register, http.MethodPost, "/api/register", registerBody, 0).Code)

	rec := call(h.Login, http.MethodPost, "/api/login", `{"username":"REX@example.com","password":"woof-woof"}`, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var got authResp
	require.NoError(t, decode(rec, &got))
	assert.Equal(t, "rex_owner", got.User.Username)
}

func TestMe(t *testing.T) {
	h, _, _ := newAuthHandler()
	require.Equal(t, http.StatusCreated, call(h.Register, http.MethodPost, "/api/register", registerBody, 0).Code)

	rec := call(h.Me, http.MethodGet, "/api/me", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"rex_owner"`)
	assert.NotContains(t, rec.Body.String(), "password")

	assert.Equal(t, http.StatusNotFound, call(h.Me, http.MethodGet, "/api/me", "", 9).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h.Me, http.MethodGet, "/api/me", "", 0).Code)
}
