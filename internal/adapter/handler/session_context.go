package handler

import (
	"net/http"
	"strings"
	"time"

	"repair-desk/internal/domain"

	"github.com/labstack/echo/v4"
)

// SessionTokenHeader lets non-browser clients send the session token without a cookie.
const SessionTokenHeader = "X-Session-Token"

const sessionContextKey = "repair_desk.session"

// SessionCookie reads and writes the session cookie.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Token returns the session token from the cookie, falling back to the header.
func (sc SessionCookie) Token(c echo.Context) string {
	if cookie, err := c.Cookie(sc.Name); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(c.Request().Header.Get(SessionTokenHeader))
}

// Set stores session as an HttpOnly cookie that lives as long as the session.
func (sc SessionCookie) Set(c echo.Context, session *domain.Session) {
	cookie := &http.Cookie{
		Name:     sc.Name,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !session.ExpiresAt.IsZero() {
		cookie.Expires = session.ExpiresAt
	}
	c.SetCookie(cookie)
}

// Clear expires the cookie.
func (sc SessionCookie) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

func setSession(c echo.Context, s *domain.Session) {
	c.Set(sessionContextKey, s)
}

// SessionFrom returns the session the gate resolved for this request, if any.
func SessionFrom(c echo.Context) (*domain.Session, bool) {
	s, ok := c.Get(sessionContextKey).(*domain.Session)
	return s, ok && s != nil
}

// requireSessionContext returns the gate's session or an authentication error.
func requireSessionContext(c echo.Context) (*domain.Session, error) {
	s, ok := SessionFrom(c)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// wantsHTML reports whether the client is a browser form post that expects a redirect.
func wantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

// flowResponse is the JSON body for account flows.
type flowResponse struct {
	OK       bool   `json:"ok"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
}

// respondFlow redirects browsers with 303 and answers other clients with JSON.
func respondFlow(c echo.Context, resp flowResponse) error {
	if resp.Redirect != "" && wantsHTML(c) {
		return c.Redirect(http.StatusSeeOther, resp.Redirect)
	}
	return c.JSON(http.StatusOK, resp)
}
