package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"repair-desk/internal/domain"
)

// SignInInput is the sign-in form.
type SignInInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// SignInResult carries the new session and, when the role resolved, the
// dashboard to go to.
type SignInResult struct {
	Session  *domain.Session
	Role     domain.Role
	Redirect string
}

// SignIn authenticates credentials and routes the user by role.
type SignIn struct {
	validator domain.InputValidator
	identity  domain.IdentityProvider
	roles     *RoleLookup
	logger    *slog.Logger
}

// NewSignIn creates a new SignIn usecase.
func NewSignIn(v domain.InputValidator, ip domain.IdentityProvider, roles *RoleLookup, l *slog.Logger) *SignIn {
	return &SignIn{validator: v, identity: ip, roles: roles, logger: l}
}

// Execute authenticates in. Credential failures always come back as
// domain.ErrInvalidCredentials. When the role cannot be resolved the result
// still holds the session but has no Redirect, and the error wraps
// domain.ErrRoleNotFound.
func (uc *SignIn) Execute(ctx context.Context, in SignInInput) (*SignInResult, error) {
	if err := uc.validator.Validate(in); err != nil {
		return nil, err
	}

	session, err := uc.identity.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			uc.logger.InfoContext(ctx, "sign-in rejected")
			return nil, domain.ErrInvalidCredentials
		}
		uc.logger.ErrorContext(ctx, "sign-in failed", "error", err)
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	if session == nil || session.IdentityID == "" {
		uc.logger.ErrorContext(ctx, "identity provider returned no identity for session")
		return nil, domain.ErrMissingIdentity
	}

	result := &SignInResult{Session: session}

	role, err := uc.roles.Resolve(ctx, session.IdentityID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			uc.logger.WarnContext(ctx, "signed in without a role", "identity_id", session.IdentityID)
		} else {
			uc.logger.ErrorContext(ctx, "role lookup failed after sign-in", "identity_id", session.IdentityID, "error", err)
		}
		return result, err
	}

	result.Role = role
	result.Redirect = role.DashboardPath()
	uc.logger.InfoContext(ctx, "signed in", "identity_id", session.IdentityID, "role", role)
	return result, nil
}
