package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"repair-desk/internal/domain"
)

// ProfileStore is an in-process domain.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
	now      func() time.Time
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]domain.Profile), now: time.Now}
}

func (s *ProfileStore) InsertProfile(_ context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		return fmt.Errorf("profile %s already exists", p.ID)
	}
	for _, existing := range s.profiles {
		if existing.Email == p.Email {
			return fmt.Errorf("profile with email %s already exists", p.Email)
		}
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *ProfileStore) GetProfile(_ context.Context, identityID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[identityID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}
