package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dog-playground-booking/internal/config"
	"github.com/iliyamo/dog-playground-booking/internal/session"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

const testSecret = "test-secret"

func whoami(c echo.Context) error {
	uid, ok := UserID(c)
	if !ok {
		return c.String(http.StatusOK, "anon")
	}
	return c.JSON(http.StatusOK, echo.Map{"uid": uid})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuth_BearerToken(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, RequireAuth(testSecret, nil))

	tok, err := utils.NewAccessToken(testSecret, 11, "rex", 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":11}`, rec.Body.String())
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, OptionalAuth(testSecret, nil))

	other, err := utils.NewAccessToken("another-secret", 11, "rex", 5)
	require.NoError(t, err)

	for _, h := range []string{"Basic abc", "Bearer garbage", "Bearer " + other.Token} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", h)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code, h)
	}
}

func TestAuth_SessionCookie(t *testing.T) {
	sessions := session.NewManager([]byte(strings.Repeat("s", 32)), nil, 0, false)
	e := echo.New()
	e.GET("/me", whoami, RequireAuth(testSecret, sessions))

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Set(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec), 5))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	res := serve(e, req)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"uid":5}`, res.Body.String())
}

func TestAuth_RequiredVersusOptional(t *testing.T) {
	e := echo.New()
	e.GET("/required", whoami, RequireAuth(testSecret, nil))
	e.GET("/optional", whoami, OptionalAuth(testSecret, nil))

	assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/required", nil)).Code)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/optional", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anon", rec.Body.String())
}

func TestTokenBucket_LocalFallbackWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, nil))

	for i := 0; i < 2; i++ {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/x", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	assert.Equal(t, http.StatusNoContent, serve(e, other).Code)
}

func TestTokenBucket_Disabled(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestBuildRateKey_Strategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/book", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/book")
	c.Set(CtxUserID, uint64(9))

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
	assert.Equal(t, "rl:user:9:route:POST /api/book", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:192.0.2.1", buildRateKey(cfg, c))
}

func TestCacheKey_IncludesPathParams(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "c", KeyStrategy: "route"}

	key := func(id string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/playgrounds/"+id+"/details", nil), httptest.NewRecorder())
		c.SetPath("/api/playgrounds/:id/details")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return cacheKeyFrom(cfg, c)
	}
	assert.NotEqual(t, key("1"), key("2"))
	assert.Equal(t, key("1"), key("1"))
	assert.True(t, strings.HasPrefix(key("1"), "c:"))
}

func TestPayload_RoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestRedisCache_DisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
