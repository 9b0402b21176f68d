package handler

import (
	"errors"
	"net/http"

	"repair-desk/internal/domain"

	"github.com/labstack/echo/v4"
)

// validationResponse is the 400 body: a summary plus one message per field.
type validationResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
// Messages are short and never carry provider or store detail.
func mapDomainError(err error) *echo.HTTPError {
	var (
		verr *domain.ValidationError
		perr *domain.ProviderError
	)

	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, validationResponse{
			Message: "Please correct the highlighted fields",
			Fields:  verr.Fields,
		})

	case errors.As(err, &perr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, perr.Message)

	// Checked before the store errors it may wrap.
	case errors.Is(err, domain.ErrProvisioning):
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user profile")

	case errors.Is(err, domain.ErrResetFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "Error sending password reset email")

	case errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")

	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionInactive),
		errors.Is(err, domain.ErrMissingIdentity):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

	case errors.Is(err, domain.ErrRoleNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusConflict, "User role not found")

	case errors.Is(err, domain.ErrNoUnitAssigned):
		return echo.NewHTTPError(http.StatusConflict, "No unit is assigned to your account")

	case errors.Is(err, domain.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")

	case errors.Is(err, domain.ErrCSRFMismatch):
		return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")

	case errors.Is(err, domain.ErrProviderUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable")

	case errors.Is(err, domain.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "data store unavailable")

	case errors.Is(err, domain.ErrAdminNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, "internal configuration error")

	case errors.Is(err, domain.ErrTokenGeneration),
		errors.Is(err, domain.ErrCSRFSecretMissing),
		errors.Is(err, domain.ErrBackendSecretWeak):
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation error")

	case errors.Is(err, domain.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
