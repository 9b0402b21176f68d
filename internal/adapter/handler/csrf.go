package handler

import (
	"log/slog"
	"net/http"

	"repair-desk/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CSRFHandler handles CSRF token requests.
type CSRFHandler struct {
	uc     *usecase.GenerateCSRF
	cookie SessionCookie
}

// NewCSRFHandler creates a new CSRF handler.
func NewCSRFHandler(uc *usecase.GenerateCSRF, cookie SessionCookie) *CSRFHandler {
	return &CSRFHandler{uc: uc, cookie: cookie}
}

// csrfResponse represents the CSRF token response.
type csrfResponse struct {
	Data struct {
		CSRFToken string `json:"csrf_token"`
	} `json:"data"`
}

// Handle processes CSRF token requests.
func (h *CSRFHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	token := h.cookie.Token(c)
	if token == "" {
		slog.WarnContext(ctx, "csrf token request without session cookie")
		return echo.NewHTTPError(http.StatusUnauthorized, "session cookie required")
	}

	csrfToken, err := h.uc.Execute(ctx, token)
	if err != nil {
		return mapDomainError(err)
	}

	// Log only the first 8 characters of the session token
	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	slog.InfoContext(ctx, "csrf token generated", "session_prefix", prefix)

	resp := csrfResponse{}
	resp.Data.CSRFToken = csrfToken
	return c.JSON(http.StatusOK, resp)
}
