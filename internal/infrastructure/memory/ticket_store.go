package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"repair-desk/internal/domain"
)

// TicketStore is an in-process domain.TicketStore.
type TicketStore struct {
	mu         sync.RWMutex
	tickets    map[string]domain.Ticket
	units      map[string]domain.Unit
	propertyOf map[string]string // property id -> manager id
	now        func() time.Time
}

func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets:    make(map[string]domain.Ticket),
		units:      make(map[string]domain.Unit),
		propertyOf: make(map[string]string),
		now:        time.Now,
	}
}

// AddProperty registers a property managed by managerID.
func (s *TicketStore) AddProperty(propertyID, managerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.propertyOf[propertyID] = managerID
}

// AddUnit registers a unit and its tenant.
func (s *TicketStore) AddUnit(u domain.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.ID] = u
}

// Assign sets the vendor on a ticket.
func (s *TicketStore) Assign(ticketID, vendorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return false
	}
	t.AssignedTo = vendorID
	t.Status = domain.TicketAssigned
	t.UpdatedAt = s.now().UTC()
	s.tickets[ticketID] = t
	return true
}

func (s *TicketStore) UnitForTenant(_ context.Context, tenantID string) (*domain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.units {
		if u.TenantID == tenantID {
			return &u, nil
		}
	}
	return nil, domain.ErrNoUnitAssigned
}

func (s *TicketStore) CreateTicket(_ context.Context, t *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	t.UpdatedAt = t.CreatedAt
	s.tickets[t.ID] = *t
	return nil
}

func (s *TicketStore) ListCreatedBy(_ context.Context, userID string) ([]*domain.Ticket, error) {
	return s.filter(func(t domain.Ticket) bool { return t.CreatedBy == userID }), nil
}

func (s *TicketStore) ListAssignedTo(_ context.Context, userID string) ([]*domain.Ticket, error) {
	return s.filter(func(t domain.Ticket) bool { return t.AssignedTo == userID }), nil
}

func (s *TicketStore) ListManagedBy(_ context.Context, managerID string) ([]*domain.Ticket, error) {
	s.mu.RLock()
	managed := make(map[string]bool)
	for prop, mgr := range s.propertyOf {
		if mgr == managerID {
			managed[prop] = true
		}
	}
	s.mu.RUnlock()

	return s.filter(func(t domain.Ticket) bool { return managed[t.PropertyID] }), nil
}

// filter returns matching tickets, newest first.
func (s *TicketStore) filter(match func(domain.Ticket) bool) []*domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Ticket, 0)
	for _, t := range s.tickets {
		if match(t) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
