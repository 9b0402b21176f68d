package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Authentication errors.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionInactive    = errors.New("session is not active")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Account lifecycle errors.
var (
	ErrValidation       = errors.New("validation failed")
	ErrIdentityRejected = errors.New("identity provider rejected the request")
	ErrMissingIdentity  = errors.New("no user data returned")
	ErrProvisioning     = errors.New("failed to create user profile")
	ErrResetFailed      = errors.New("error sending password reset email")
)

// Integrity errors.
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrRoleNotFound     = errors.New("user role not found")
	ErrIdentityNotFound = errors.New("identity not found")
)

// Authorization errors.
var (
	ErrForbidden      = errors.New("forbidden")
	ErrCSRFMismatch   = errors.New("csrf token mismatch")
	ErrNoUnitAssigned = errors.New("no unit assigned to tenant")
)

// Token errors.
var (
	ErrTokenGeneration   = errors.New("token generation failed")
	ErrCSRFSecretMissing = errors.New("CSRF secret not configured")
	ErrBackendSecretWeak = errors.New("backend token secret too weak")
)

// External service errors.
var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrAdminNotConfigured  = errors.New("admin API not configured")
	ErrStoreUnavailable    = errors.New("data store unavailable")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ValidationError carries per-field messages keyed by the input's JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewFieldError builds a ValidationError for a single field.
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// ProviderError is a rejection reported by the identity provider. Message is
// short and safe to show to the user.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIdentityRejected, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrIdentityRejected }

// ProvisioningError reports a profile that could not be created for a new
// identity. It unwraps to both ErrProvisioning and the store error.
type ProvisioningError struct {
	IdentityID string
	Cause      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s for identity %s: %v", ErrProvisioning, e.IdentityID, e.Cause)
}

func (e *ProvisioningError) Unwrap() []error { return []error{ErrProvisioning, e.Cause} }
