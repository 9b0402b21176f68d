package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"password": "Password must be at least 8 characters",
		"email":    "Invalid email address",
	}}

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation failed: email: Invalid email address; password: Password must be at least 8 characters", err.Error())
}

func TestProvisioningError_UnwrapsBoth(t *testing.T) {
	cause := errors.New("duplicate key")
	err := &ProvisioningError{IdentityID: "id-1", Cause: cause}

	assert.True(t, errors.Is(err, ErrProvisioning))
	assert.True(t, errors.Is(err, cause))
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{Message: "An account with the same identifier exists already."}

	assert.True(t, errors.Is(err, ErrIdentityRejected))
	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "An account with the same identifier exists already.", pe.Message)
}
