package service

import (
	"context"
	"strings"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/repository"
)

// TicketStore is the read-only persistence surface for ticket lookup.
type TicketStore interface {
	GetTicketByReference(ctx context.Context, ref string) (*model.Ticket, error)
	ListTicketsByEmail(ctx context.Context, email string) ([]model.Ticket, error)
}

// LookupService resolves reference numbers and emails to tickets. It has
// no side effects; the store queries already project rows down to the
// publicly displayable fields.
type LookupService struct {
	store TicketStore
}

// NewLookupService constructs a LookupService.
func NewLookupService(store TicketStore) *LookupService {
	if store == nil {
		panic("nil store passed to NewLookupService")
	}
	return &LookupService{store: store}
}

// ByReference resolves a single ticket, or repository.ErrTicketNotFound.
// References are stored upper-case; lookups tolerate any casing.
func (s *LookupService) ByReference(ctx context.Context, ref string) (*model.Ticket, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return nil, repository.ErrTicketNotFound
	}
	return s.store.GetTicketByReference(ctx, ref)
}

// ByEmail resolves every ticket registered under the address, newest
// first, or repository.ErrTicketNotFound when there are none.
func (s *LookupService) ByEmail(ctx context.Context, email string) ([]model.Ticket, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.store.ListTicketsByEmail(ctx, normalized)
}
