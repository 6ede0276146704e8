package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
)

// fakeRegistrationStore mimics the atomic create of the MySQL repository:
// duplicate check, capacity check and insert happen under one lock.
type fakeRegistrationStore struct {
	mu       sync.Mutex
	capacity map[uint64]int // 0 entry means unlimited
	rows     []model.Participant
	nextID   uint64

	failWith error // when set, every Create returns this
}

func newFakeRegistrationStore() *fakeRegistrationStore {
	return &fakeRegistrationStore{capacity: map[uint64]int{}}
}

func (f *fakeRegistrationStore) Create(_ context.Context, p *model.Participant, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.capacity[p.EventID]; !ok {
		return repository.ErrEventNotFound
	}
	count := 0
	for _, r := range f.rows {
		if r.ReferenceNumber == p.ReferenceNumber {
			return repository.ErrReferenceTaken
		}
		if r.EventID == p.EventID {
			if r.Email == p.Email {
				return repository.ErrAlreadyRegistered
			}
			count++
		}
	}
	if limit := f.capacity[p.EventID]; limit > 0 && count >= limit {
		return repository.ErrEventFull
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = now
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakeRegistrationStore) countFor(eventID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

type RegistrationServiceSuite struct {
	suite.Suite
	store *fakeRegistrationStore
	svc   *RegistrationService
	ctx   context.Context
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.store = newFakeRegistrationStore()
	s.svc = NewRegistrationService(s.store)
	s.ctx = context.Background()
}

func (s *RegistrationServiceSuite) request(email string) RegistrationRequest {
	return RegistrationRequest{
		FullName:    "Ada Lovelace",
		Email:       email,
		GDPRConsent: true,
	}
}

func (s *RegistrationServiceSuite) TestValidation() {
	s.store.capacity[1] = 0

	s.Run("missing consent is rejected before anything else", func() {
		req := s.request("ada@example.com")
		req.GDPRConsent = false
		_, err := s.svc.Register(s.ctx, 1, req)
		s.Require().ErrorIs(err, ErrConsentRequired)
	})

	s.Run("zero event id", func() {
		_, err := s.svc.Register(s.ctx, 0, s.request("ada@example.com"))
		s.Require().ErrorIs(err, ErrInvalidInput)
	})

	s.Run("blank full name", func() {
		req := s.request("ada@example.com")
		req.FullName = "   "
		_, err := s.svc.Register(s.ctx, 1, req)
		s.Require().ErrorIs(err, ErrInvalidInput)
	})

	s.Run("malformed email", func() {
		_, err := s.svc.Register(s.ctx, 1, s.request("not-an-email"))
		s.Require().ErrorIs(err, ErrInvalidEmail)
	})
}

func (s *RegistrationServiceSuite) TestRegister() {
	s.store.capacity[1] = 0

	s.Run("successful registration issues a reference number", func() {
		p, err := s.svc.Register(s.ctx, 1, s.request("Ada@Example.com"))
		s.Require().NoError(err)
		s.Equal("ada@example.com", p.Email)
		s.Len(p.ReferenceNumber, 12)
		s.NotZero(p.ID)
		s.True(p.GDPRConsent)
	})

	s.Run("same email in different case is a duplicate", func() {
		_, err := s.svc.Register(s.ctx, 1, s.request("ADA@EXAMPLE.COM"))
		s.Require().ErrorIs(err, repository.ErrAlreadyRegistered)
	})

	s.Run("unknown event", func() {
		_, err := s.svc.Register(s.ctx, 42, s.request("ada@example.com"))
		s.Require().ErrorIs(err, repository.ErrEventNotFound)
	})

	s.Run("optional fields are trimmed and blank ones dropped", func() {
		title := "  Engineer  "
		company := "   "
		req := s.request("grace@example.com")
		req.Title = &title
		req.Company = &company
		p, err := s.svc.Register(s.ctx, 1, req)
		s.Require().NoError(err)
		s.Require().NotNil(p.Title)
		s.Equal("Engineer", *p.Title)
		s.Nil(p.Company)
	})
}

// TestCapacityUnderConcurrency drives many concurrent registrations at a
// small event and checks that exactly capacity of them succeed.
func (s *RegistrationServiceSuite) TestCapacityUnderConcurrency() {
	const capacity = 5
	const attempts = 40
	s.store.capacity[7] = capacity

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.svc.Register(s.ctx, 7, RegistrationRequest{
				FullName:    "Load Tester",
				Email:       fmt.Sprintf("user%d@example.com", i),
				GDPRConsent: true,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, repository.ErrEventFull):
				rejected++
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(capacity, admitted)
	s.Equal(attempts-capacity, rejected)
	s.Equal(capacity, s.store.countFor(7))
}

func (s *RegistrationServiceSuite) TestCapacityOneAdmitsSingleWinner() {
	s.store.capacity[3] = 1

	var wg sync.WaitGroup
	errs := make([]error, 2)
	emails := []string{"first@example.com", "second@example.com"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Register(s.ctx, 3, RegistrationRequest{
				FullName:    "Racer",
				Email:       emails[i],
				GDPRConsent: true,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			s.Require().ErrorIs(err, repository.ErrEventFull)
		}
	}
	s.Equal(1, winners)
	s.Equal(1, s.store.countFor(3))
}

func (s *RegistrationServiceSuite) TestReferenceCollisionRetry() {
	s.Run("persistent collisions give up after a bounded number of tries", func() {
		s.store.failWith = repository.ErrReferenceTaken
		_, err := s.svc.Register(s.ctx, 1, s.request("ada@example.com"))
		s.Require().ErrorIs(err, ErrIssuanceExhausted)
	})

	s.Run("other store errors pass through untouched", func() {
		s.store.failWith = repository.ErrEventFull
		_, err := s.svc.Register(s.ctx, 1, s.request("ada@example.com"))
		s.Require().ErrorIs(err, repository.ErrEventFull)
	})
}
