package domain

import "context"

//go:generate mockgen -source=port.go -destination=mocks/mock_port.go -package=mocks

// IdentityProvider manages identities and sessions at the external auth provider.
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, in NewIdentity) (string, error)
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	RequestPasswordReset(ctx context.Context, email, callbackURL string) error
	SignOut(ctx context.Context, token string) error
	DeleteIdentity(ctx context.Context, identityID string) error
	IdentityExists(ctx context.Context, identityID string) (bool, error)
}

// ProfileStore persists profiles keyed by identity ID.
type ProfileStore interface {
	InsertProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, identityID string) (*Profile, error)
}

// RoleCache holds recently resolved roles.
type RoleCache interface {
	Get(ctx context.Context, identityID string) (Role, bool)
	Set(ctx context.Context, identityID string, role Role)
	Delete(ctx context.Context, identityID string)
}

// CompensationLog records sign-up rollbacks until they complete.
type CompensationLog interface {
	Record(ctx context.Context, c *Compensation) error
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	ListPending(ctx context.Context, limit int) ([]*Compensation, error)
}

// TicketStore persists tickets and the unit/property relations dashboards filter on.
type TicketStore interface {
	UnitForTenant(ctx context.Context, tenantID string) (*Unit, error)
	CreateTicket(ctx context.Context, t *Ticket) error
	ListCreatedBy(ctx context.Context, userID string) ([]*Ticket, error)
	ListAssignedTo(ctx context.Context, userID string) ([]*Ticket, error)
	ListManagedBy(ctx context.Context, managerID string) ([]*Ticket, error)
}

// InputValidator checks tagged input structs.
type InputValidator interface {
	Validate(v any) error
}

// TokenIssuer generates signed backend JWT tokens.
type TokenIssuer interface {
	IssueBackendToken(p *Profile, sessionID string) (string, error)
}

// CSRFTokenGenerator generates CSRF tokens from session tokens.
type CSRFTokenGenerator interface {
	Generate(sessionToken string) (string, error)
	Verify(sessionToken, token string) bool
}
