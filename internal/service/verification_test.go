package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
)

// fakeVerificationStore keeps one code row per subject, like the MySQL
// table keyed by user_id. MarkConsumed is conditional to model the
// exactly-once consume semantics.
type fakeVerificationStore struct {
	mu   sync.Mutex
	rows map[uint64]model.VerificationCode
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{rows: map[uint64]model.VerificationCode{}}
}

func (f *fakeVerificationStore) Upsert(_ context.Context, v *model.VerificationCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[v.UserID] = *v
	return nil
}

func (f *fakeVerificationStore) Get(_ context.Context, userID uint64) (*model.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[userID]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}
	out := rec
	return &out, nil
}

func (f *fakeVerificationStore) MarkConsumed(_ context.Context, userID uint64, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[userID]
	if !ok || rec.Consumed || rec.Code != code {
		return false, nil
	}
	rec.Consumed = true
	f.rows[userID] = rec
	return true, nil
}

// recordingMailer captures outbound sends; failNext simulates a provider
// outage for a single call.
type recordingMailer struct {
	mu       sync.Mutex
	sent     []string
	failNext bool
}

func (m *recordingMailer) Send(_ context.Context, to, _, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return "", errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to)
	return "msg-1", nil
}

type VerificationServiceSuite struct {
	suite.Suite
	store  *fakeVerificationStore
	mailer *recordingMailer
	svc    *VerificationService
	ctx    context.Context
	clock  time.Time
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.store = newFakeVerificationStore()
	s.mailer = &recordingMailer{}
	s.svc = NewVerificationService(s.store, s.mailer, "masterfabric.co")
	s.ctx = context.Background()
	s.clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc.now = func() time.Time { return s.clock }
}

func (s *VerificationServiceSuite) advance(d time.Duration) {
	s.clock = s.clock.Add(d)
}

func (s *VerificationServiceSuite) TestCandidateValidation() {
	s.Run("foreign domain is rejected", func() {
		_, err := s.svc.IssueCode(s.ctx, 1, "jane@gmail.com", model.CodeKindStandard)
		s.Require().ErrorIs(err, ErrWrongDomain)
	})

	s.Run("malformed address", func() {
		_, err := s.svc.IssueCode(s.ctx, 1, "jane@@masterfabric.co", model.CodeKindStandard)
		s.Require().ErrorIs(err, ErrInvalidEmail)
	})

	s.Run("internship kind requires the prefix", func() {
		_, err := s.svc.IssueCode(s.ctx, 1, "jane@masterfabric.co", model.CodeKindInternship)
		s.Require().ErrorIs(err, ErrWrongPrefix)
	})

	s.Run("internship address with prefix is accepted", func() {
		issued, err := s.svc.IssueCode(s.ctx, 1, "internship.jane@masterfabric.co", model.CodeKindInternship)
		s.Require().NoError(err)
		s.Equal("internship.jane@masterfabric.co", issued.Email)
	})

	s.Run("standard kind accepts a prefixed address too", func() {
		_, err := s.svc.IssueCode(s.ctx, 2, "internship.bob@masterfabric.co", model.CodeKindStandard)
		s.Require().NoError(err)
	})

	s.Run("address is normalized before the domain check", func() {
		issued, err := s.svc.IssueCode(s.ctx, 3, "  Jane@MasterFabric.CO ", model.CodeKindStandard)
		s.Require().NoError(err)
		s.Equal("jane@masterfabric.co", issued.Email)
	})
}

func (s *VerificationServiceSuite) TestIssueAndConsume() {
	issued, err := s.svc.IssueCode(s.ctx, 10, "jane@masterfabric.co", model.CodeKindStandard)
	s.Require().NoError(err)
	s.Len(issued.Code, 6)
	s.Equal(s.clock.Add(CodeTTL), issued.ExpiresAt)
	s.Equal([]string{"jane@masterfabric.co"}, s.mailer.sent)

	s.Run("wrong code leaves the row consumable", func() {
		_, err := s.svc.ConsumeCode(s.ctx, 10, "000000", model.CodeKindStandard)
		s.Require().ErrorIs(err, ErrCodeMismatch)
	})

	s.Run("correct code verifies the email", func() {
		email, err := s.svc.ConsumeCode(s.ctx, 10, issued.Code, model.CodeKindStandard)
		s.Require().NoError(err)
		s.Equal("jane@masterfabric.co", email)
	})

	s.Run("a consumed code cannot be replayed", func() {
		_, err := s.svc.ConsumeCode(s.ctx, 10, issued.Code, model.CodeKindStandard)
		s.Require().ErrorIs(err, repository.ErrCodeNotFound)
	})

	s.Run("no code at all", func() {
		_, err := s.svc.ConsumeCode(s.ctx, 99, "123456", model.CodeKindStandard)
		s.Require().ErrorIs(err, repository.ErrCodeNotFound)
	})
}

func (s *VerificationServiceSuite) TestExpiry() {
	issued, err := s.svc.IssueCode(s.ctx, 20, "jane@masterfabric.co", model.CodeKindStandard)
	s.Require().NoError(err)

	s.Run("just inside the window still works", func() {
		s.advance(CodeTTL - time.Second)
		_, err := s.svc.ConsumeCode(s.ctx, 20, "000000", model.CodeKindStandard)
		s.Require().ErrorIs(err, ErrCodeMismatch)
	})

	s.Run("past the window the right digits no longer help", func() {
		s.advance(2 * time.Second)
		_, err := s.svc.ConsumeCode(s.ctx, 20, issued.Code, model.CodeKindStandard)
		s.Require().ErrorIs(err, ErrCodeExpired)
	})
}

func (s *VerificationServiceSuite) TestReissueSupersedes() {
	first, err := s.svc.IssueCode(s.ctx, 30, "jane@masterfabric.co", model.CodeKindStandard)
	s.Require().NoError(err)
	second, err := s.svc.IssueCode(s.ctx, 30, "joe@masterfabric.co", model.CodeKindStandard)
	s.Require().NoError(err)

	if first.Code != second.Code {
		_, err = s.svc.ConsumeCode(s.ctx, 30, first.Code, model.CodeKindStandard)
		s.Require().ErrorIs(err, ErrCodeMismatch)
	}

	email, err := s.svc.ConsumeCode(s.ctx, 30, second.Code, model.CodeKindStandard)
	s.Require().NoError(err)
	s.Equal("joe@masterfabric.co", email)
}

func (s *VerificationServiceSuite) TestKindMismatch() {
	issued, err := s.svc.IssueCode(s.ctx, 40, "internship.jane@masterfabric.co", model.CodeKindInternship)
	s.Require().NoError(err)

	_, err = s.svc.ConsumeCode(s.ctx, 40, issued.Code, model.CodeKindStandard)
	s.Require().ErrorIs(err, ErrKindMismatch)

	email, err := s.svc.ConsumeCode(s.ctx, 40, issued.Code, model.CodeKindInternship)
	s.Require().NoError(err)
	s.Equal("internship.jane@masterfabric.co", email)
}

func (s *VerificationServiceSuite) TestDeliveryFailure() {
	s.mailer.failNext = true
	issued, err := s.svc.IssueCode(s.ctx, 50, "jane@masterfabric.co", model.CodeKindStandard)
	s.Require().ErrorIs(err, ErrDeliveryFailed)
	s.Require().NotNil(issued)

	// The row was stored before delivery, so the code still works.
	email, err := s.svc.ConsumeCode(s.ctx, 50, issued.Code, model.CodeKindStandard)
	s.Require().NoError(err)
	s.Equal("jane@masterfabric.co", email)
}

func (s *VerificationServiceSuite) TestConcurrentConsumeAdmitsOneWinner() {
	issued, err := s.svc.IssueCode(s.ctx, 60, "jane@masterfabric.co", model.CodeKindStandard)
	s.Require().NoError(err)

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.svc.ConsumeCode(s.ctx, 60, issued.Code, model.CodeKindStandard)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			s.Require().ErrorIs(err, repository.ErrCodeNotFound)
		}
	}
	s.Equal(1, winners)
}
