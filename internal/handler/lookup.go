package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/repository"
	"github.com/masterfabric/onboarding-events/internal/service"
)

// LookupHandler exposes ticket retrieval for attendees.
type LookupHandler struct {
	Lookups *service.LookupService
}

func NewLookupHandler(l *service.LookupService) *LookupHandler {
	return &LookupHandler{Lookups: l}
}

// ByReference returns the ticket behind a reference number.
func (h *LookupHandler) ByReference(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Lookups.ByReference(ctx, c.Param("reference"))
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load ticket"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

type emailLookupReq struct {
	Email string `json:"email" validate:"required,email"`
}

// ByEmail returns every ticket registered under an email address.
// The address travels in the body so it never lands in access logs.
func (h *LookupHandler) ByEmail(c echo.Context) error {
	var req emailLookupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Lookups.ByEmail(ctx, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
		case errors.Is(err, repository.ErrTicketNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no tickets found for this email"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load tickets"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}
