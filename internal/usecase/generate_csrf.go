package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"repair-desk/internal/domain"
)

// GenerateCSRF issues and checks CSRF tokens bound to a session.
type GenerateCSRF struct {
	identity domain.IdentityProvider
	csrf     domain.CSRFTokenGenerator
	logger   *slog.Logger
}

// NewGenerateCSRF creates a new GenerateCSRF usecase.
func NewGenerateCSRF(ip domain.IdentityProvider, csrf domain.CSRFTokenGenerator, l *slog.Logger) *GenerateCSRF {
	return &GenerateCSRF{identity: ip, csrf: csrf, logger: l}
}

// Execute validates the session and generates a CSRF token for it.
func (uc *GenerateCSRF) Execute(ctx context.Context, sessionToken string) (string, error) {
	if _, err := requireSession(ctx, uc.identity, sessionToken); err != nil {
		return "", err
	}

	token, err := uc.csrf.Generate(sessionToken)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to generate CSRF token", "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}

	return token, nil
}

// Verify returns domain.ErrCSRFMismatch unless token belongs to sessionToken.
func (uc *GenerateCSRF) Verify(sessionToken, token string) error {
	if !uc.csrf.Verify(sessionToken, token) {
		return domain.ErrCSRFMismatch
	}
	return nil
}
