// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/dog-playground-booking/internal/config"
	"github.com/iliyamo/dog-playground-booking/internal/handler"
	"github.com/iliyamo/dog-playground-booking/internal/middleware"
	"github.com/iliyamo/dog-playground-booking/internal/session"
)

// Deps is everything the routes need.  Redis may be nil.
type Deps struct {
	JWTSecret   string
	Sessions    *session.Manager
	Redis       *redis.Client
	Cache       config.CacheConfig
	RateLimit   config.RateLimitConfig
	Log         *slog.Logger
	Auth        *handler.AuthHandler
	Playgrounds *handler.PlaygroundHandler
	Dogs        *handler.DogHandler
	Bookings    *handler.BookingHandler
}

// New builds an echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e)
	api := e.Group("/api", middleware.NewTokenBucket(d.RateLimit, d.Redis))
	RegisterPublic(api, d)
	RegisterAuth(api, d)
	RegisterMember(api, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// are not rate limited.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers account routes.  Logout identifies the caller when
// it can so it may revoke every session; Me requires authentication.
func RegisterAuth(g *echo.Group, d Deps) {
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout, middleware.OptionalAuth(d.JWTSecret, d.Sessions))
	g.GET("/me", d.Auth.Me, middleware.RequireAuth(d.JWTSecret, d.Sessions))
}
