package handler

import (
	"net/http"
	"time"

	"repair-desk/internal/usecase"

	"github.com/labstack/echo/v4"
)

// BackendTokenHeader carries the short-lived token for downstream services.
const BackendTokenHeader = "X-Backend-Token"

// SessionHandler handles /api/session returning JSON for the frontend.
type SessionHandler struct {
	uc     *usecase.GetSession
	cookie SessionCookie
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(uc *usecase.GetSession, cookie SessionCookie) *SessionHandler {
	return &SessionHandler{uc: uc, cookie: cookie}
}

// sessionUser represents the user object in the response.
type sessionUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	Dashboard string `json:"dashboard"`
}

// sessionInfo represents the session object in the response.
type sessionInfo struct {
	ID        string    `json:"id"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type sessionResponse struct {
	OK      bool        `json:"ok"`
	User    sessionUser `json:"user"`
	Session sessionInfo `json:"session"`
}

// Handle processes the /api/session endpoint and returns JSON.
func (h *SessionHandler) Handle(c echo.Context) error {
	token := h.cookie.Token(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "session cookie not found")
	}

	view, err := h.uc.Execute(c.Request().Context(), token)
	if err != nil {
		return mapDomainError(err)
	}

	c.Response().Header().Set(BackendTokenHeader, view.BackendToken)
	return c.JSON(http.StatusOK, sessionResponse{
		OK: true,
		User: sessionUser{
			ID:        view.IdentityID,
			Email:     view.Email,
			FullName:  view.FullName,
			Role:      view.Role.String(),
			Dashboard: view.Dashboard,
		},
		Session: sessionInfo{
			ID:        view.SessionID,
			Active:    true,
			ExpiresAt: view.ExpiresAt,
		},
	})
}
