package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"repair-desk/internal/domain"
)

// SessionView holds the data returned by GetSession.
type SessionView struct {
	IdentityID   string
	Email        string
	FullName     string
	Role         domain.Role
	Dashboard    string
	SessionID    string
	ExpiresAt    time.Time
	BackendToken string
}

// GetSession describes the caller's session and issues a backend token for it.
type GetSession struct {
	identity domain.IdentityProvider
	profiles domain.ProfileStore
	roles    *RoleLookup
	token    domain.TokenIssuer
	logger   *slog.Logger
}

// NewGetSession creates a new GetSession usecase.
func NewGetSession(ip domain.IdentityProvider, ps domain.ProfileStore, roles *RoleLookup, t domain.TokenIssuer, l *slog.Logger) *GetSession {
	return &GetSession{identity: ip, profiles: ps, roles: roles, token: t, logger: l}
}

// Execute resolves sessionToken into a SessionView.
func (uc *GetSession) Execute(ctx context.Context, sessionToken string) (*SessionView, error) {
	session, err := requireSession(ctx, uc.identity, sessionToken)
	if err != nil {
		return nil, err
	}

	profile, err := uc.profiles.GetProfile(ctx, session.IdentityID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRoleNotFound, err)
		}
		uc.logger.ErrorContext(ctx, "profile lookup failed", "identity_id", session.IdentityID, "error", err)
		return nil, err
	}
	if !profile.Role.Valid() {
		return nil, domain.ErrRoleNotFound
	}
	uc.roles.Remember(ctx, profile.ID, profile.Role)

	backendToken, err := uc.token.IssueBackendToken(profile, session.ID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to issue backend token", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}

	return &SessionView{
		IdentityID:   profile.ID,
		Email:        profile.Email,
		FullName:     profile.FullName,
		Role:         profile.Role,
		Dashboard:    profile.Role.DashboardPath(),
		SessionID:    session.ID,
		ExpiresAt:    session.ExpiresAt,
		BackendToken: backendToken,
	}, nil
}

// requireSession returns an active session for token or an authentication error.
func requireSession(ctx context.Context, ip domain.IdentityProvider, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, err := ip.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionInactive) {
			return nil, err
		}
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	if session == nil || !session.Active {
		return nil, domain.ErrSessionInactive
	}
	if session.IdentityID == "" {
		return nil, domain.ErrMissingIdentity
	}
	return session, nil
}
