package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"repair-desk/internal/domain"
	"repair-desk/internal/infrastructure/memory"
	"repair-desk/internal/infrastructure/validation"
)

const testPassword = "Abcdefg1"

// testEnv wires the use cases to the in-memory backends.
type testEnv struct {
	identity *memory.IdentityProvider
	profiles *memory.ProfileStore
	tickets  *memory.TicketStore
	comps    *memory.CompensationLog
	cache    *mapRoleCache
	roles    *RoleLookup
	logger   *slog.Logger
}

func newTestEnv() *testEnv {
	e := &testEnv{
		identity: memory.NewIdentityProvider(),
		profiles: memory.NewProfileStore(),
		tickets:  memory.NewTicketStore(),
		comps:    memory.NewCompensationLog(),
		cache:    newMapRoleCache(),
		logger:   slog.Default(),
	}
	e.roles = NewRoleLookup(e.profiles, e.cache)
	return e
}

// register creates an identity and, when role is non-empty, its profile.
func (e *testEnv) register(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	ctx := context.Background()

	id, err := e.identity.CreateIdentity(ctx, domain.NewIdentity{Email: email, Password: testPassword, Role: role})
	require.NoError(t, err)
	if role != "" {
		require.NoError(t, e.profiles.InsertProfile(ctx, &domain.Profile{ID: id, FullName: "Test User", Email: email, Role: role}))
	}
	return id
}

func (e *testEnv) signIn(t *testing.T, email string) *domain.Session {
	t.Helper()
	sess, err := e.identity.Authenticate(context.Background(), email, testPassword)
	require.NoError(t, err)
	return sess
}

func newValidator() domain.InputValidator {
	return validation.New()
}

// mapRoleCache implements domain.RoleCache for testing.
type mapRoleCache struct {
	entries map[string]domain.Role
}

func newMapRoleCache() *mapRoleCache {
	return &mapRoleCache{entries: make(map[string]domain.Role)}
}

func (m *mapRoleCache) Get(_ context.Context, id string) (domain.Role, bool) {
	r, ok := m.entries[id]
	return r, ok
}

func (m *mapRoleCache) Set(_ context.Context, id string, r domain.Role) { m.entries[id] = r }

func (m *mapRoleCache) Delete(_ context.Context, id string) { delete(m.entries, id) }

// failingProfileStore wraps a ProfileStore and fails inserts and/or reads.
type failingProfileStore struct {
	domain.ProfileStore
	insertErr error
	getErr    error
}

func (f *failingProfileStore) InsertProfile(ctx context.Context, p *domain.Profile) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.ProfileStore.InsertProfile(ctx, p)
}

func (f *failingProfileStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.ProfileStore.GetProfile(ctx, id)
}

// countingProvider counts session lookups and can simulate an outage.
type countingProvider struct {
	domain.IdentityProvider
	lookups    atomic.Int32
	sessionErr error
}

func (c *countingProvider) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	c.lookups.Add(1)
	if c.sessionErr != nil {
		return nil, c.sessionErr
	}
	return c.IdentityProvider.GetSession(ctx, token)
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:4433: connect: connection refused")
