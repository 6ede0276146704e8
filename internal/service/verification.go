package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
	"github.com/masterfabric/onboarding-events/internal/utils"
)

// CodeTTL is the fixed validity window of a verification code.
const CodeTTL = 10 * time.Minute

// internshipPrefix is the local-part convention internship addresses must
// follow, e.g. internship.jane@masterfabric.co.
const internshipPrefix = "internship."

// Verification flow errors. Handlers map all of these to 400 responses.
var (
	ErrWrongDomain     = errors.New("email does not belong to the organization domain")
	ErrWrongPrefix     = errors.New("internship email must start with the internship prefix")
	ErrKindMismatch    = errors.New("verification kind does not match the issued code")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeMismatch    = errors.New("verification code does not match")
	ErrDeliveryFailed  = errors.New("verification email could not be delivered")
	ErrUnknownCodeKind = errors.New("unknown verification kind")
)

// VerificationStore is the persistence surface for verification codes.
// Upsert must replace any existing row for the subject; MarkConsumed must
// be conditional on the code still being unconsumed so concurrent consume
// attempts admit exactly one winner.
type VerificationStore interface {
	Upsert(ctx context.Context, v *model.VerificationCode) error
	Get(ctx context.Context, userID uint64) (*model.VerificationCode, error)
	MarkConsumed(ctx context.Context, userID uint64, code string) (bool, error)
}

// IssuedCode is returned by IssueCode for the handler to report back.
type IssuedCode struct {
	Code      string
	Email     string
	ExpiresAt time.Time
}

// VerificationService issues and consumes the short-lived one-time codes
// used to confirm control of a corporate email address. A subject holds at
// most one code at a time; issuing a new one silently supersedes the old,
// whatever its remaining lifetime.
type VerificationService struct {
	store  VerificationStore
	mailer Mailer
	domain string // accepted corporate domain, without the @
	now    func() time.Time
}

// NewVerificationService constructs a VerificationService. The mailer may
// be nil in tests; IssueCode then skips delivery.
func NewVerificationService(store VerificationStore, mailer Mailer, domain string) *VerificationService {
	if store == nil {
		panic("nil store passed to NewVerificationService")
	}
	return &VerificationService{
		store:  store,
		mailer: mailer,
		domain: strings.ToLower(strings.TrimSpace(domain)),
		now:    time.Now,
	}
}

// IssueCode validates the candidate address for the requested kind,
// generates a fresh six-digit code valid for CodeTTL, stores it (replacing
// any prior code for the subject) and emails it to the candidate address.
// The code row is persisted before delivery is attempted, so a delivery
// failure surfaces ErrDeliveryFailed while the code remains consumable.
func (s *VerificationService) IssueCode(ctx context.Context, userID uint64, candidateEmail string, kind model.CodeKind) (*IssuedCode, error) {
	email, err := s.validateCandidate(candidateEmail, kind)
	if err != nil {
		return nil, err
	}

	code, err := utils.NewNumericCode()
	if err != nil {
		return nil, err
	}
	issuedAt := s.now().UTC()
	rec := &model.VerificationCode{
		UserID:      userID,
		Code:        code,
		TargetEmail: email,
		Kind:        kind,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(CodeTTL),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	issued := &IssuedCode{Code: code, Email: email, ExpiresAt: rec.ExpiresAt}
	if s.mailer != nil {
		if _, err := s.mailer.Send(ctx, email,
			"Your verification code",
			verificationPlainBody(code),
			verificationHTMLBody(code)); err != nil {
			return issued, ErrDeliveryFailed
		}
	}
	return issued, nil
}

// ConsumeCode checks the submitted code for the subject and marks it
// consumed on success, returning the now-verified email address. The
// checks run in a fixed order: missing or already-consumed row first, then
// kind, then expiry, then value. An expired code is rejected even when
// the digits match. A second consume of the same correct code fails with
// ErrCodeNotFound.
func (s *VerificationService) ConsumeCode(ctx context.Context, userID uint64, code string, kind model.CodeKind) (string, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec.Consumed {
		return "", repository.ErrCodeNotFound
	}
	if rec.Kind != kind {
		return "", ErrKindMismatch
	}
	if rec.Expired(s.now().UTC()) {
		return "", ErrCodeExpired
	}
	if rec.Code != strings.TrimSpace(code) {
		return "", ErrCodeMismatch
	}

	ok, err := s.store.MarkConsumed(ctx, userID, rec.Code)
	if err != nil {
		return "", err
	}
	if !ok {
		// Lost the race against a concurrent consume.
		return "", repository.ErrCodeNotFound
	}
	return rec.TargetEmail, nil
}

// validateCandidate applies the domain-restricted grammar: the address
// must parse, belong to the organization domain and, for the internship
// kind, carry the internship local-part prefix.
func (s *VerificationService) validateCandidate(candidate string, kind model.CodeKind) (string, error) {
	email, err := NormalizeEmail(candidate)
	if err != nil {
		return "", err
	}
	local, domain, found := strings.Cut(email, "@")
	if !found || domain != s.domain {
		return "", ErrWrongDomain
	}
	switch kind {
	case model.CodeKindStandard:
	case model.CodeKindInternship:
		if !strings.HasPrefix(local, internshipPrefix) {
			return "", ErrWrongPrefix
		}
	default:
		return "", ErrUnknownCodeKind
	}
	return email, nil
}
