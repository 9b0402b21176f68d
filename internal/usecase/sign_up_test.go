package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"repair-desk/internal/domain"
	"repair-desk/internal/domain/mocks"
)

const confirmationURL = "http://localhost:8080/auth/callback"

func validSignUpInput() SignUpInput {
	return SignUpInput{
		Email:    "new.tenant@example.com",
		Password: "Abcdefg1",
		FullName: "New Tenant",
		Role:     "tenant",
	}
}

func TestSignUp_Success(t *testing.T) {
	env := newTestEnv()
	uc := NewSignUp(newValidator(), env.identity, env.profiles, env.comps, confirmationURL, env.logger)

	result, err := uc.Execute(context.Background(), validSignUpInput())

	require.NoError(t, err)
	assert.Equal(t, "/sign-in", result.Redirect)
	assert.Equal(t, "Please check your email to confirm your account", result.Notice)

	profile, err := env.profiles.GetProfile(context.Background(), result.IdentityID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTenant, profile.Role)
	assert.Equal(t, "New Tenant", profile.FullName)
	assert.Equal(t, "new.tenant@example.com", profile.Email)
}

func TestSignUp_ValidationMakesNoCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileStore(ctrl)
	comps := mocks.NewMockCompensationLog(ctrl)
	uc := NewSignUp(newValidator(), identity, profiles, comps, confirmationURL, newTestEnv().logger)

	tests := []struct {
		name     string
		password string
		accepted bool
	}{
		{"too short", "abc", false},
		{"no uppercase or digit", "abcdefgh", false},
		{"meets rules", "Abcdefg1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSignUpInput()
			in.Password = tt.password
			if tt.accepted {
				identity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return("id-1", nil)
				profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(nil)
			}

			_, err := uc.Execute(context.Background(), in)

			if tt.accepted {
				assert.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, "password")
		})
	}
}

func TestSignUp_PassesMetadataAndConfirmationURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileStore(ctrl)
	uc := NewSignUp(newValidator(), identity, profiles, nil, confirmationURL, newTestEnv().logger)

	in := validSignUpInput()
	in.Role = "vendor"
	identity.EXPECT().CreateIdentity(gomock.Any(), domain.NewIdentity{
		Email:           in.Email,
		Password:        in.Password,
		FullName:        in.FullName,
		Role:            domain.RoleVendor,
		ConfirmationURL: confirmationURL,
	}).Return("id-9", nil)
	profiles.EXPECT().InsertProfile(gomock.Any(), &domain.Profile{
		ID:       "id-9",
		FullName: in.FullName,
		Email:    in.Email,
		Role:     domain.RoleVendor,
	}).Return(nil)

	_, err := uc.Execute(context.Background(), in)
	assert.NoError(t, err)
}

func TestSignUp_ProviderRejectionIsSurfaced(t *testing.T) {
	env := newTestEnv()
	uc := NewSignUp(newValidator(), env.identity, env.profiles, env.comps, confirmationURL, env.logger)

	_, err := uc.Execute(context.Background(), validSignUpInput())
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), validSignUpInput())

	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "An account with this email already exists", pe.Message)
}

func TestSignUp_ProviderOutage(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	uc := NewSignUp(newValidator(), identity, mocks.NewMockProfileStore(ctrl), nil, confirmationURL, newTestEnv().logger)

	identity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return("", errConnRefused)

	_, err := uc.Execute(context.Background(), validSignUpInput())

	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	assert.True(t, errors.Is(err, errConnRefused))
}

func TestSignUp_EmptyIdentityIDIsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	uc := NewSignUp(newValidator(), identity, mocks.NewMockProfileStore(ctrl), nil, confirmationURL, newTestEnv().logger)

	identity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return("", nil)

	result, err := uc.Execute(context.Background(), validSignUpInput())

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrMissingIdentity))
}

func TestSignUp_CompensatesWhenProfileInsertFails(t *testing.T) {
	env := newTestEnv()
	profileErr := errors.New("duplicate key value violates unique constraint \"profiles_email_key\"")
	profiles := &failingProfileStore{ProfileStore: env.profiles, insertErr: profileErr}
	uc := NewSignUp(newValidator(), env.identity, profiles, env.comps, confirmationURL, env.logger)

	result, err := uc.Execute(context.Background(), validSignUpInput())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrProvisioning))
	assert.True(t, errors.Is(err, profileErr), "caller sees the profile error")

	var perr *domain.ProvisioningError
	require.True(t, errors.As(err, &perr))
	exists, lookupErr := env.identity.IdentityExists(context.Background(), perr.IdentityID)
	require.NoError(t, lookupErr)
	assert.False(t, exists, "orphaned identity must be deleted")

	pending, _ := env.comps.ListPending(context.Background(), 10)
	assert.Empty(t, pending, "successful rollback closes its log entry")

	_, err = env.identity.Authenticate(context.Background(), "new.tenant@example.com", "Abcdefg1")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestSignUp_DeleteFailureDoesNotMaskProfileError(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileStore(ctrl)
	comps := mocks.NewMockCompensationLog(ctrl)
	uc := NewSignUp(newValidator(), identity, profiles, comps, confirmationURL, newTestEnv().logger)

	profileErr := errors.New("relation \"profiles\" does not exist")
	deleteErr := errors.New("admin api timeout")

	gomock.InOrder(
		identity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return("id-7", nil),
		profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(profileErr),
		comps.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *domain.Compensation) error {
			assert.Equal(t, "id-7", c.IdentityID)
			c.ID = "comp-1"
			return nil
		}),
		identity.EXPECT().DeleteIdentity(gomock.Any(), "id-7").Return(deleteErr),
		comps.EXPECT().MarkFailed(gomock.Any(), "comp-1", deleteErr.Error()).Return(nil),
	)

	_, err := uc.Execute(context.Background(), validSignUpInput())

	assert.True(t, errors.Is(err, profileErr))
	assert.True(t, errors.Is(err, domain.ErrProvisioning))
	assert.False(t, errors.Is(err, deleteErr))
}

func TestSignUp_CompensatesEvenIfLogUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileStore(ctrl)
	comps := mocks.NewMockCompensationLog(ctrl)
	uc := NewSignUp(newValidator(), identity, profiles, comps, confirmationURL, newTestEnv().logger)

	identity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return("id-8", nil)
	profiles.EXPECT().InsertProfile(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))
	comps.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("log store down"))
	identity.EXPECT().DeleteIdentity(gomock.Any(), "id-8").Return(nil)

	_, err := uc.Execute(context.Background(), validSignUpInput())
	assert.True(t, errors.Is(err, domain.ErrProvisioning))
}

func TestSignUp_CompensationSurvivesCancelledRequest(t *testing.T) {
	env := newTestEnv()
	profiles := &failingProfileStore{ProfileStore: env.profiles, insertErr: errors.New("insert failed")}
	uc := NewSignUp(newValidator(), env.identity, profiles, env.comps, confirmationURL, env.logger)

	ctx, cancel := context.WithCancel(context.Background())
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	uc.identity = identity

	identity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.NewIdentity) (string, error) {
		cancel()
		return "id-c", nil
	})
	identity.EXPECT().DeleteIdentity(gomock.Any(), "id-c").DoAndReturn(func(ctx context.Context, _ string) error {
		return ctx.Err()
	})

	_, err := uc.Execute(ctx, validSignUpInput())
	assert.True(t, errors.Is(err, domain.ErrProvisioning))

	pending, _ := env.comps.ListPending(context.Background(), 10)
	assert.Empty(t, pending)
}
