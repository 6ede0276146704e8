package router

import (
	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/handler"
	"github.com/masterfabric/onboarding-events/internal/middleware"
	"github.com/masterfabric/onboarding-events/internal/model"
)

// RegisterOwner registers organizer endpoints under /v1/owner.
// All routes require a valid JWT carrying the OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerEventHandler, jwtSecret string) {
	g := e.Group("/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
	)

	g.POST("/events", o.Create)
	g.GET("/events", o.List)
	g.PUT("/events/:id", o.Update)
	g.PATCH("/events/:id", o.Update)
	g.POST("/events/:id/publish", o.Publish)
	g.POST("/events/:id/unpublish", o.Unpublish)
	g.DELETE("/events/:id", o.Delete)

	g.GET("/events/:id/participants", o.ListParticipants)
	g.DELETE("/participants/:id", o.DeleteParticipant)
}
