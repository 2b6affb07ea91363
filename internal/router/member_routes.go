package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/middleware"
)

// RegisterMember registers endpoints that act on the caller's own dogs and
// bookings.  All of them require a Bearer token or a session cookie.
func RegisterMember(g *echo.Group, d Deps) {
	auth := middleware.RequireAuth(d.JWTSecret, d.Sessions)

	g.GET("/my-dogs", d.Dogs.Mine, auth)
	g.POST("/dogs/add", d.Dogs.Add, auth)
	g.GET("/my-bookings", d.Bookings.Mine, auth)
	g.POST("/book", d.Bookings.Book, auth)
	g.POST("/bookings/:id/cancel", d.Bookings.Cancel, auth)
}
