package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
	"github.com/masterfabric/onboarding-events/internal/service"
)

// memVerificationStore holds one code per subject, enough to drive the
// handler through the service layer without a database.
type memVerificationStore struct {
	rows map[uint64]model.VerificationCode
}

func (m *memVerificationStore) Upsert(_ context.Context, v *model.VerificationCode) error {
	m.rows[v.UserID] = *v
	return nil
}

func (m *memVerificationStore) Get(_ context.Context, userID uint64) (*model.VerificationCode, error) {
	rec, ok := m.rows[userID]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}
	out := rec
	return &out, nil
}

func (m *memVerificationStore) MarkConsumed(_ context.Context, userID uint64, code string) (bool, error) {
	rec, ok := m.rows[userID]
	if !ok || rec.Consumed || rec.Code != code {
		return false, nil
	}
	rec.Consumed = true
	m.rows[userID] = rec
	return true, nil
}

type VerificationHandlerSuite struct {
	suite.Suite
	e     *echo.Echo
	store *memVerificationStore
	h     *VerificationHandler
}

func TestVerificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerificationHandlerSuite))
}

func (s *VerificationHandlerSuite) SetupTest() {
	s.e = echo.New()
	s.e.Validator = NewRequestValidator()
	s.store = &memVerificationStore{rows: map[uint64]model.VerificationCode{}}
	svc := service.NewVerificationService(s.store, nil, "masterfabric.co")
	s.h = NewVerificationHandler(svc, nil, nil)
}

func (s *VerificationHandlerSuite) call(path, body string, userID any, fn echo.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	s.Require().NoError(fn(c))
	return rec
}

func (s *VerificationHandlerSuite) TestSendCode() {
	s.Run("no session answers 401", func() {
		rec := s.call("/v1/verification/send-code", `{"email":"jane@masterfabric.co"}`, nil, s.h.SendCode)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("foreign domain answers 400", func() {
		rec := s.call("/v1/verification/send-code", `{"email":"jane@gmail.com"}`, "7", s.h.SendCode)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "domain")
	})

	s.Run("internship flag enforces the prefix", func() {
		rec := s.call("/v1/verification/send-code",
			`{"email":"jane@masterfabric.co","is_internship":true}`, "7", s.h.SendCode)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "internship")
	})

	s.Run("valid address issues a code", func() {
		rec := s.call("/v1/verification/send-code", `{"email":"jane@masterfabric.co"}`, "7", s.h.SendCode)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "expires_at")
		s.Contains(s.store.rows, uint64(7))
	})
}

func (s *VerificationHandlerSuite) TestVerifyCode() {
	s.Run("no pending code answers 400", func() {
		rec := s.call("/v1/verification/verify-code", `{"code":"123456"}`, "7", s.h.VerifyCode)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("code shape is validated before the store is hit", func() {
		rec := s.call("/v1/verification/verify-code", `{"code":"12ab"}`, "7", s.h.VerifyCode)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("wrong digits answer 400", func() {
		s.call("/v1/verification/send-code", `{"email":"jane@masterfabric.co"}`, "7", s.h.SendCode)
		stored := s.store.rows[7].Code
		wrong := "000000"
		if wrong == stored {
			wrong = "000001"
		}
		rec := s.call("/v1/verification/verify-code", `{"code":"`+wrong+`"}`, "7", s.h.VerifyCode)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("kind mismatch answers 400", func() {
		s.call("/v1/verification/send-code",
			`{"email":"internship.jane@masterfabric.co","is_internship":true}`, "9", s.h.SendCode)
		stored := s.store.rows[9].Code
		rec := s.call("/v1/verification/verify-code", `{"code":"`+stored+`"}`, "9", s.h.VerifyCode)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "different verification flow")
	})
}
