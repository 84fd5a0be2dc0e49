package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-lifecycle/internal/handler"
	"github.com/iliyamo/ticket-lifecycle/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, ready handler.Readiness) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready.Check)
}

// TicketRoutes carries what RegisterTickets wires into the /v1 group.
type TicketRoutes struct {
	Handler   *handler.TicketHandler
	JWTSecret string
	Cache     echo.MiddlewareFunc // applied to read routes
	RateLimit echo.MiddlewareFunc // applied to every route
}

// RegisterTickets registers the ticket API under /v1.  Every route needs a
// valid access token.  Organizers manage inventory, staff and organizers
// validate at the gate, and any authenticated role may read, download,
// dispatch or cancel.  Customers may only download, dispatch or cancel
// tickets sold to them.
func RegisterTickets(e *echo.Echo, r TicketRoutes) {
	h := r.Handler
	g := e.Group("/v1", middleware.JWTAuth(r.JWTSecret), middleware.RequireRole(middleware.AnyRole...))
	if r.RateLimit != nil {
		g.Use(r.RateLimit)
	}
	read := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if r.Cache != nil {
		read = r.Cache
	}
	organizer := middleware.RequireRole(middleware.RoleOrganizer)
	gate := middleware.RequireRole(middleware.RoleStaff, middleware.RoleOrganizer)

	g.POST("/tickets", h.Create, organizer)
	g.GET("/tickets", h.List, read)
	g.GET("/tickets/search", h.SearchText, read)
	g.GET("/tickets/:id", h.Get, read)
	g.PATCH("/tickets/:id", h.Update, organizer)
	g.DELETE("/tickets/:id", h.Delete, organizer)
	g.POST("/tickets/:id/cancel", h.Cancel)
	g.POST("/tickets/:id/validate", h.Validate, gate)
	g.GET("/tickets/:id/artifact", h.Artifact)
	g.POST("/tickets/:id/dispatch", h.Dispatch)

	g.GET("/events/:id/tickets", h.ByEvent, read)
	g.GET("/users/:id/tickets", h.ByUser, read)
	g.GET("/statuses/:status/tickets", h.ByStatus, read)
	g.GET("/types/:type/tickets", h.ByType, read)
	g.GET("/me/tickets", h.Mine)
}
