package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"repair-desk/internal/domain"
)

const defaultSessionLifetime = 24 * time.Hour

type identity struct {
	id           string
	email        string
	passwordHash []byte
	fullName     string
	role         domain.Role
	createdAt    time.Time
}

// ResetRequest is a password reset link the provider would have emailed.
type ResetRequest struct {
	Email       string
	CallbackURL string
	RequestedAt time.Time
}

// IdentityProvider is an in-process domain.IdentityProvider for local runs
// and tests. Passwords are stored as bcrypt hashes.
type IdentityProvider struct {
	mu         sync.RWMutex
	identities map[string]*identity
	byEmail    map[string]string
	sessions   map[string]*domain.Session
	resets     []ResetRequest
	lifetime   time.Duration
	cost       int
	now        func() time.Time
	compare    func(hash, password []byte) error
	// dummyHash is compared on unknown emails so both failures cost a bcrypt check.
	dummyHash []byte
}

// NewIdentityProvider creates an empty provider.
func NewIdentityProvider() *IdentityProvider {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("repair-desk-unknown-account"), bcrypt.MinCost)
	return &IdentityProvider{
		identities: make(map[string]*identity),
		byEmail:    make(map[string]string),
		sessions:   make(map[string]*domain.Session),
		lifetime:   defaultSessionLifetime,
		cost:       bcrypt.MinCost,
		now:        time.Now,
		compare:    bcrypt.CompareHashAndPassword,
		dummyHash:  dummy,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *IdentityProvider) CreateIdentity(_ context.Context, in domain.NewIdentity) (string, error) {
	email := normalizeEmail(in.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), p.cost)
	if err != nil {
		return "", &domain.ProviderError{Message: "Password could not be accepted"}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return "", &domain.ProviderError{Message: "An account with this email already exists"}
	}

	id := uuid.NewString()
	p.identities[id] = &identity{
		id:           id,
		email:        email,
		passwordHash: hash,
		fullName:     in.FullName,
		role:         in.Role,
		createdAt:    p.now(),
	}
	p.byEmail[email] = id
	return id, nil
}

func (p *IdentityProvider) Authenticate(_ context.Context, email, password string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.byEmail[normalizeEmail(email)]
	if !ok {
		_ = p.compare(p.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	ident := p.identities[id]
	if p.compare(ident.passwordHash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	sess := &domain.Session{
		Token:      uuid.NewString(),
		ID:         uuid.NewString(),
		IdentityID: ident.id,
		Email:      ident.email,
		Active:     true,
		ExpiresAt:  p.now().Add(p.lifetime),
	}
	p.sessions[sess.Token] = sess

	out := *sess
	return &out, nil
}

func (p *IdentityProvider) GetSession(_ context.Context, token string) (*domain.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sess, ok := p.sessions[token]
	if !ok || !sess.Active {
		return nil, domain.ErrSessionNotFound
	}
	if p.now().After(sess.ExpiresAt) {
		return nil, domain.ErrSessionInactive
	}

	out := *sess
	return &out, nil
}

// RequestPasswordReset records a dispatch for registered addresses and
// silently accepts unknown ones.
func (p *IdentityProvider) RequestPasswordReset(_ context.Context, email, callbackURL string) error {
	email = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byEmail[email]; ok {
		p.resets = append(p.resets, ResetRequest{Email: email, CallbackURL: callbackURL, RequestedAt: p.now()})
	}
	return nil
}

func (p *IdentityProvider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.sessions, token)
	return nil
}

// DeleteIdentity removes the identity and its sessions. Unknown ids are not an error.
func (p *IdentityProvider) DeleteIdentity(_ context.Context, identityID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ident, ok := p.identities[identityID]
	if !ok {
		return nil
	}
	delete(p.byEmail, ident.email)
	delete(p.identities, identityID)
	for tok, s := range p.sessions {
		if s.IdentityID == identityID {
			delete(p.sessions, tok)
		}
	}
	return nil
}

func (p *IdentityProvider) IdentityExists(_ context.Context, identityID string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.identities[identityID]
	return ok, nil
}

// ResetRequests returns the reset links dispatched so far.
func (p *IdentityProvider) ResetRequests() []ResetRequest {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ResetRequest, len(p.resets))
	copy(out, p.resets)
	return out
}
