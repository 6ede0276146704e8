package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
	"github.com/masterfabric/onboarding-events/internal/service"
)

// VerificationHandler drives the corporate email verification flow for
// the signed-in user.
type VerificationHandler struct {
	Verifications *service.VerificationService
	Users         *repository.UserRepo
	Codes         *repository.VerificationRepo
}

func NewVerificationHandler(v *service.VerificationService, u *repository.UserRepo, codes *repository.VerificationRepo) *VerificationHandler {
	return &VerificationHandler{Verifications: v, Users: u, Codes: codes}
}

type sendCodeReq struct {
	Email        string `json:"email" validate:"required,email"`
	IsInternship bool   `json:"is_internship"`
}

type verifyCodeReq struct {
	Code         string `json:"code" validate:"required,len=6,numeric"`
	IsInternship bool   `json:"is_internship"`
}

func codeKind(internship bool) model.CodeKind {
	if internship {
		return model.CodeKindInternship
	}
	return model.CodeKindStandard
}

// SendCode validates the candidate address, issues a fresh code and mails
// it. Reissuing replaces any code still pending for the user.
func (h *VerificationHandler) SendCode(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req sendCodeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	issued, err := h.Verifications.IssueCode(ctx, userID, req.Email, codeKind(req.IsInternship))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongDomain):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email must belong to the organization domain"})
		case errors.Is(err, service.ErrWrongPrefix):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "internship addresses must carry the internship prefix"})
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrUnknownCodeKind):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
		case errors.Is(err, service.ErrDeliveryFailed):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not deliver verification code"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue verification code"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "verification code sent",
		"email":      issued.Email,
		"expires_at": issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// VerifyCode consumes a pending code. On success the candidate email
// becomes the user's verified corporate address and the code row is gone.
func (h *VerificationHandler) VerifyCode(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req verifyCodeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code must be six digits"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	email, err := h.Verifications.ConsumeCode(ctx, userID, req.Code, codeKind(req.IsInternship))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no pending verification code"})
		case errors.Is(err, service.ErrKindMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "code was issued for a different verification flow"})
		case errors.Is(err, service.ErrCodeExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code has expired"})
		case errors.Is(err, service.ErrCodeMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code does not match"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify code"})
		}
	}

	if err := h.Users.SetVerifiedEmail(ctx, userID, email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record verified email"})
	}
	if err := h.Codes.Delete(ctx, userID); err != nil {
		c.Logger().Warnf("consumed code cleanup failed for user %d: %v", userID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "email verified",
		"verified_email": email,
	})
}
