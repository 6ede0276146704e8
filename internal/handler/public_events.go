package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/repository"
)

// PublicEventHandler serves the unauthenticated event catalogue.
type PublicEventHandler struct {
	Events *repository.EventRepo
}

func NewPublicEventHandler(e *repository.EventRepo) *PublicEventHandler {
	return &PublicEventHandler{Events: e}
}

// List returns every published, active, non-past event.
func (h *PublicEventHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListPublished(ctx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load events"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Get returns a single visible event by id. Unpublished, deactivated and
// past events answer 404 so the public surface never leaks drafts.
func (h *PublicEventHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetPublished(ctx, id, time.Now().UTC())
	if err != nil {
		if err == repository.ErrEventNotFound || err == repository.ErrEventNotPublished {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev})
}
