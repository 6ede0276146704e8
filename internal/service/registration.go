// Package service implements the business rules between the HTTP handlers
// and the repositories: registration coordination, verification codes,
// ticket lookup, outbound email and queue publication.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
	"github.com/masterfabric/onboarding-events/internal/utils"
)

// ErrConsentRequired is returned when a registration arrives without the
// GDPR consent flag set.
var ErrConsentRequired = errors.New("gdpr consent is required")

// ErrInvalidEmail is returned when the submitted address fails the
// syntactic email check.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrInvalidInput is returned for remaining malformed registration fields.
var ErrInvalidInput = errors.New("invalid input")

// ErrIssuanceExhausted is returned when reference-number generation kept
// colliding with existing rows. With the keyspace in use this practically
// never happens, so it is surfaced as a 500 worth alerting on rather than
// retried forever.
var ErrIssuanceExhausted = errors.New("could not issue a unique reference number")

// maxReferenceAttempts bounds the regenerate-and-retry loop on reference
// collisions.
const maxReferenceAttempts = 5

// RegistrationStore is the persistence surface the coordinator needs. The
// implementation must perform the duplicate check, the capacity check and
// the insert as one atomic unit against a single snapshot; MySQL does this
// with a row lock on the event (see repository.ParticipantRepo.Create).
type RegistrationStore interface {
	Create(ctx context.Context, p *model.Participant, now time.Time) error
}

// RegistrationRequest carries the validated public registration payload.
type RegistrationRequest struct {
	FullName    string
	Email       string
	Title       *string
	Company     *string
	GDPRConsent bool
}

// RegistrationService coordinates event registration: input validation,
// email normalization, reference-number issuance and the bounded retry on
// reference collisions. Capacity and duplicate enforcement are delegated
// to the store's atomic create.
type RegistrationService struct {
	store RegistrationStore
	now   func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(store RegistrationStore) *RegistrationService {
	if store == nil {
		panic("nil store passed to NewRegistrationService")
	}
	return &RegistrationService{store: store, now: time.Now}
}

// Register validates the request and performs the atomic registration.
// On a reference-number collision the reference is regenerated and the
// whole create is retried, at most maxReferenceAttempts times.
func (s *RegistrationService) Register(ctx context.Context, eventID uint64, req RegistrationRequest) (*model.Participant, error) {
	if !req.GDPRConsent {
		return nil, ErrConsentRequired
	}
	if eventID == 0 {
		return nil, ErrInvalidInput
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, ErrInvalidInput
	}
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	p := &model.Participant{
		EventID:     eventID,
		Email:       email,
		FullName:    fullName,
		Title:       trimOptional(req.Title),
		Company:     trimOptional(req.Company),
		GDPRConsent: true,
	}

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := utils.NewReferenceNumber()
		if err != nil {
			return nil, err
		}
		p.ReferenceNumber = ref

		err = s.store.Create(ctx, p, s.now().UTC())
		if errors.Is(err, repository.ErrReferenceTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, ErrIssuanceExhausted
}

// NormalizeEmail lower-cases and trims the address and verifies it against
// the address grammar. The normalized form is what all uniqueness rules
// operate on, so A@X.com and a@x.com collide.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
