package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"repair-desk/internal/domain"
)

// SignOut revokes a session and drops its cached role.
type SignOut struct {
	identity domain.IdentityProvider
	roles    *RoleLookup
	logger   *slog.Logger
}

// NewSignOut creates a new SignOut usecase.
func NewSignOut(ip domain.IdentityProvider, roles *RoleLookup, l *slog.Logger) *SignOut {
	return &SignOut{identity: ip, roles: roles, logger: l}
}

// Execute is a no-op for an empty or already revoked token.
func (uc *SignOut) Execute(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	if session, err := uc.identity.GetSession(ctx, sessionToken); err == nil && session != nil {
		uc.roles.Forget(ctx, session.IdentityID)
	}

	if err := uc.identity.SignOut(ctx, sessionToken); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		uc.logger.ErrorContext(ctx, "sign-out failed", "error", err)
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	return nil
}
