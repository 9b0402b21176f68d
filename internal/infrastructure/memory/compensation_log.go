package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"repair-desk/internal/domain"
)

// CompensationLog is an in-process domain.CompensationLog.
type CompensationLog struct {
	mu      sync.Mutex
	entries map[string]domain.Compensation
	now     func() time.Time
}

func NewCompensationLog() *CompensationLog {
	return &CompensationLog{entries: make(map[string]domain.Compensation), now: time.Now}
}

func (l *CompensationLog) Record(_ context.Context, c *domain.Compensation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = domain.CompensationPending
	c.CreatedAt = l.now().UTC()
	c.UpdatedAt = c.CreatedAt
	l.entries[c.ID] = *c
	return nil
}

func (l *CompensationLog) MarkDone(_ context.Context, id string) error {
	return l.update(id, func(c *domain.Compensation) {
		c.Status = domain.CompensationDone
		c.LastError = ""
	})
}

func (l *CompensationLog) MarkFailed(_ context.Context, id string, reason string) error {
	return l.update(id, func(c *domain.Compensation) {
		c.LastError = reason
	})
}

func (l *CompensationLog) update(id string, fn func(*domain.Compensation)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.entries[id]
	if !ok {
		return fmt.Errorf("compensation %s not found", id)
	}
	c.Attempts++
	c.UpdatedAt = l.now().UTC()
	fn(&c)
	l.entries[id] = c
	return nil
}

func (l *CompensationLog) ListPending(_ context.Context, limit int) ([]*domain.Compensation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*domain.Compensation
	for _, c := range l.entries {
		if c.Status == domain.CompensationPending {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a copy of the entry with the given id.
func (l *CompensationLog) Get(id string) (domain.Compensation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.entries[id]
	return c, ok
}
