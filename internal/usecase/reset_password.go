package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"repair-desk/internal/domain"
)

// ResetPasswordInput is the password reset form.
type ResetPasswordInput struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// Ack is a user-facing acknowledgement.
type Ack struct {
	Message string
}

const resetAckMessage = "Check your email for the password reset link"

// RequestPasswordReset asks the identity provider to email a reset link.
// Registered and unregistered addresses get the same acknowledgement.
type RequestPasswordReset struct {
	validator   domain.InputValidator
	identity    domain.IdentityProvider
	callbackURL string
	logger      *slog.Logger
}

// NewRequestPasswordReset creates a new RequestPasswordReset usecase.
func NewRequestPasswordReset(v domain.InputValidator, ip domain.IdentityProvider, callbackURL string, l *slog.Logger) *RequestPasswordReset {
	return &RequestPasswordReset{validator: v, identity: ip, callbackURL: callbackURL, logger: l}
}

func (uc *RequestPasswordReset) Execute(ctx context.Context, in ResetPasswordInput) (*Ack, error) {
	if err := uc.validator.Validate(in); err != nil {
		return nil, err
	}

	err := uc.identity.RequestPasswordReset(ctx, in.Email, uc.callbackURL)
	if err != nil && !errors.Is(err, domain.ErrIdentityNotFound) {
		uc.logger.ErrorContext(ctx, "password reset dispatch failed", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrResetFailed, err)
	}

	return &Ack{Message: resetAckMessage}, nil
}
