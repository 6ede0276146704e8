package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/queue"
	"github.com/masterfabric/onboarding-events/internal/repository"
	"github.com/masterfabric/onboarding-events/internal/service"
)

// RegistrationHandler accepts public event registrations.
type RegistrationHandler struct {
	Registrations *service.RegistrationService
	Events        *repository.EventRepo
	Recaptcha     *service.RecaptchaVerifier
}

func NewRegistrationHandler(reg *service.RegistrationService, events *repository.EventRepo, rc *service.RecaptchaVerifier) *RegistrationHandler {
	return &RegistrationHandler{Registrations: reg, Events: events, Recaptcha: rc}
}

type registrationReq struct {
	EventID        uint64  `json:"event_id" validate:"required"`
	FullName       string  `json:"full_name" validate:"required,max=255"`
	Email          string  `json:"email" validate:"required,email"`
	Title          *string `json:"title" validate:"omitempty,max=255"`
	Company        *string `json:"company" validate:"omitempty,max=255"`
	GDPRConsent    bool    `json:"gdpr_consent"`
	RecaptchaToken string  `json:"recaptcha_token"`
}

// Register creates a participant row for a published event and returns
// the reference number the attendee uses at the door.
func (h *RegistrationHandler) Register(c echo.Context) error {
	var req registrationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if h.Recaptcha.Enabled() {
		if err := h.Recaptcha.Verify(ctx, req.RecaptchaToken, c.RealIP()); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "captcha verification failed"})
		}
	}

	p, err := h.Registrations.Register(ctx, req.EventID, service.RegistrationRequest{
		FullName:    req.FullName,
		Email:       req.Email,
		Title:       req.Title,
		Company:     req.Company,
		GDPRConsent: req.GDPRConsent,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound),
			errors.Is(err, repository.ErrEventNotPublished):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrEventFull):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event is at capacity"})
		case errors.Is(err, repository.ErrAlreadyRegistered):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered for this event"})
		case errors.Is(err, service.ErrConsentRequired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "gdpr consent is required"})
		case errors.Is(err, service.ErrInvalidEmail):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
		case errors.Is(err, service.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration fields"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not complete registration"})
		}
	}

	go h.publishConfirmed(p.ID, p.EventID, p.FullName, p.Email, p.ReferenceNumber, p.Company, p.CreatedAt)

	return c.JSON(http.StatusCreated, echo.Map{"registration": p})
}

// publishConfirmed emits the broker event after the transaction commits.
// Delivery is best effort; a broker outage never fails the registration.
func (h *RegistrationHandler) publishConfirmed(participantID, eventID uint64, fullName, email, ref string, company *string, createdAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := queue.RegistrationConfirmedEvent{
		MessageID:       uuid.NewString(),
		ParticipantID:   participantID,
		EventID:         eventID,
		FullName:        fullName,
		Email:           email,
		ReferenceNumber: ref,
		Company:         company,
		ConfirmedAt:     createdAt.UTC().Format(time.RFC3339),
	}
	if ev, err := h.Events.GetByID(ctx, eventID); err == nil {
		msg.EventTitle = ev.Title
		msg.EventDate = ev.EventDate.UTC().Format(time.RFC3339)
	}
	if err := service.PublishRegistrationConfirmed(ctx, msg); err != nil {
		log.Printf("registration event not published: %v", err)
	}
}
