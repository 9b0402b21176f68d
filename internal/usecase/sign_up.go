package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"repair-desk/internal/domain"
)

const compensationTimeout = 10 * time.Second

// SignUpInput is the registration form.
type SignUpInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,password"`
	FullName string `json:"full_name" form:"full_name" validate:"required,min=2"`
	Role     string `json:"role" form:"role" validate:"required,role"`
}

// SignUpResult tells the client where to go after registering.
type SignUpResult struct {
	IdentityID string
	Redirect   string
	Notice     string
}

const signUpNotice = "Please check your email to confirm your account"

// SignUp creates an identity and its profile. If the profile cannot be
// stored the identity is deleted again, and the rollback is recorded in the
// compensation log so it can be replayed if the delete fails.
type SignUp struct {
	validator       domain.InputValidator
	identity        domain.IdentityProvider
	profiles        domain.ProfileStore
	compensations   domain.CompensationLog
	confirmationURL string
	logger          *slog.Logger
}

// NewSignUp creates a new SignUp usecase.
func NewSignUp(
	v domain.InputValidator,
	ip domain.IdentityProvider,
	ps domain.ProfileStore,
	cl domain.CompensationLog,
	confirmationURL string,
	l *slog.Logger,
) *SignUp {
	return &SignUp{
		validator:       v,
		identity:        ip,
		profiles:        ps,
		compensations:   cl,
		confirmationURL: confirmationURL,
		logger:          l,
	}
}

// Execute validates in, provisions the account and returns the post sign-up redirect.
func (uc *SignUp) Execute(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	if err := uc.validator.Validate(in); err != nil {
		return nil, err
	}
	role := domain.Role(in.Role)

	identityID, err := uc.identity.CreateIdentity(ctx, domain.NewIdentity{
		Email:           in.Email,
		Password:        in.Password,
		FullName:        in.FullName,
		Role:            role,
		ConfirmationURL: uc.confirmationURL,
	})
	if err != nil {
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			uc.logger.InfoContext(ctx, "identity provider rejected sign-up", "reason", pe.Message)
			return nil, err
		}
		uc.logger.ErrorContext(ctx, "identity creation failed", "error", err)
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	if identityID == "" {
		uc.logger.ErrorContext(ctx, "identity provider returned no identity id")
		return nil, domain.ErrMissingIdentity
	}

	profile := &domain.Profile{
		ID:       identityID,
		FullName: in.FullName,
		Email:    in.Email,
		Role:     role,
	}
	if err := uc.profiles.InsertProfile(ctx, profile); err != nil {
		uc.logger.ErrorContext(ctx, "profile creation failed, rolling back identity",
			"identity_id", identityID, "error", err)
		uc.compensate(ctx, identityID, err)
		return nil, &domain.ProvisioningError{IdentityID: identityID, Cause: err}
	}

	uc.logger.InfoContext(ctx, "account created", "identity_id", identityID, "role", role)
	return &SignUpResult{
		IdentityID: identityID,
		Redirect:   domain.SignInPath,
		Notice:     signUpNotice,
	}, nil
}

// compensate deletes the orphaned identity. Its outcome is logged and
// recorded but never returned.
func (uc *SignUp) compensate(ctx context.Context, identityID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	entry := &domain.Compensation{IdentityID: identityID, Reason: cause.Error()}
	recorded := false
	if uc.compensations != nil {
		if err := uc.compensations.Record(ctx, entry); err != nil {
			uc.logger.WarnContext(ctx, "failed to record compensation", "identity_id", identityID, "error", err)
		} else {
			recorded = true
		}
	}

	if err := uc.identity.DeleteIdentity(ctx, identityID); err != nil {
		uc.logger.ErrorContext(ctx, "compensating identity deletion failed",
			"identity_id", identityID, "recorded", recorded, "error", err)
		if recorded {
			if merr := uc.compensations.MarkFailed(ctx, entry.ID, err.Error()); merr != nil {
				uc.logger.WarnContext(ctx, "failed to update compensation", "compensation_id", entry.ID, "error", merr)
			}
		}
		return
	}

	uc.logger.InfoContext(ctx, "orphaned identity deleted", "identity_id", identityID)
	if recorded {
		if err := uc.compensations.MarkDone(ctx, entry.ID); err != nil {
			uc.logger.WarnContext(ctx, "failed to close compensation", "compensation_id", entry.ID, "error", err)
		}
	}
}
