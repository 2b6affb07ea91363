package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/middleware"
)

// RegisterPublic registers the catalogue endpoints.  Catalogue listings
// change only on re-import and are served through the response cache; the
// details view carries live slot statuses and is never cached.
func RegisterPublic(g *echo.Group, d Deps) {
	cached := middleware.NewRedisCache(d.Cache, d.Redis)

	g.GET("/districts", d.Playgrounds.Districts, cached)
	g.GET("/playgrounds", d.Playgrounds.List, cached)
	g.GET("/playgrounds/search", d.Playgrounds.Search, cached)
	g.GET("/playgrounds/:id/details", d.Playgrounds.Details)
	g.GET("/categories", d.Playgrounds.Categories)
	g.GET("/dogs", d.Dogs.List)
	g.GET("/diagnostics", d.Playgrounds.Diagnostics)
}
