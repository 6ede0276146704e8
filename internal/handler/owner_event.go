package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
)

// OwnerEventHandler covers event management for organizers.
type OwnerEventHandler struct {
	Events       *repository.EventRepo
	Participants *repository.ParticipantRepo
}

func NewOwnerEventHandler(e *repository.EventRepo, p *repository.ParticipantRepo) *OwnerEventHandler {
	return &OwnerEventHandler{Events: e, Participants: p}
}

type eventReq struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	EventDate   string  `json:"event_date" validate:"required"`
	Capacity    *uint32 `json:"capacity" validate:"omitempty,gt=0"`
}

func (r *eventReq) parseDate() (time.Time, error) {
	return time.Parse(time.RFC3339, r.EventDate)
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// Create stores a new draft event owned by the caller. Events start
// unpublished and only show up publicly after an explicit publish.
func (h *OwnerEventHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event fields"})
	}
	date, err := req.parseDate()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be RFC 3339"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.Create(ctx, &model.Event{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		EventDate:   date.UTC(),
		Capacity:    req.Capacity,
		IsActive:    true,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create event"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"event": ev})
}

// List returns every event owned by the caller, drafts included.
func (h *OwnerEventHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load events"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Update rewrites the mutable fields of an owned event.
func (h *OwnerEventHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event fields"})
	}
	date, err := req.parseDate()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be RFC 3339"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return h.ownedEventError(c, err)
	}

	ev.Title = req.Title
	ev.Description = req.Description
	ev.Location = req.Location
	ev.EventDate = date.UTC()
	ev.Capacity = req.Capacity
	if err := h.Events.Update(ctx, ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev})
}

// Publish flips an owned event to its public state.
func (h *OwnerEventHandler) Publish(c echo.Context) error {
	return h.setPublished(c, true)
}

// Unpublish pulls an owned event off the public catalogue.
func (h *OwnerEventHandler) Unpublish(c echo.Context) error {
	return h.setPublished(c, false)
}

func (h *OwnerEventHandler) setPublished(c echo.Context, published bool) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Events.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return h.ownedEventError(c, err)
	}
	if err := h.Events.SetPublished(ctx, id, published); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_published": published})
}

// Delete removes an owned event. Events that already collected
// registrations cannot be deleted, only unpublished.
func (h *OwnerEventHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Events.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return h.ownedEventError(c, err)
	}
	if err := h.Events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has registrations and cannot be deleted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete event"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListParticipants returns the attendee list of an owned event.
func (h *OwnerEventHandler) ListParticipants(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	participants, err := h.Participants.ListByEvent(ctx, id, ownerID)
	if err != nil {
		return h.ownedEventError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"participants": participants})
}

// DeleteParticipant cancels a registration on an owned event, freeing
// the seat and the email for a fresh registration.
func (h *OwnerEventHandler) DeleteParticipant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid participant id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Participants.Delete(ctx, id, ownerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove participant"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OwnerEventHandler) ownedEventError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load event"})
	}
}
