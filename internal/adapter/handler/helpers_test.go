package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"repair-desk/internal/domain"
	"repair-desk/internal/infrastructure/cache"
	"repair-desk/internal/infrastructure/memory"
	"repair-desk/internal/infrastructure/token"
	"repair-desk/internal/infrastructure/validation"
	"repair-desk/internal/usecase"
	appmiddleware "repair-desk/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const (
	testPassword       = "Abcdefg1"
	testCookieName     = "repair_desk_session"
	testInternalSecret = "internal-secret"
	testBaseURL        = "http://repairs.test"
)

// testApp is the full HTTP surface wired to the in-memory backends.
type testApp struct {
	e        *echo.Echo
	identity *memory.IdentityProvider
	profiles *memory.ProfileStore
	tickets  *memory.TicketStore
	comps    *memory.CompensationLog
}

func newTestApp(t *testing.T, healthChecks map[string]HealthCheck) *testApp {
	t.Helper()

	app := &testApp{
		identity: memory.NewIdentityProvider(),
		profiles: memory.NewProfileStore(),
		tickets:  memory.NewTicketStore(),
		comps:    memory.NewCompensationLog(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validation.New()
	roles := usecase.NewRoleLookup(app.profiles, cache.NewRoleCache(100, time.Minute))
	csrfUC := usecase.NewGenerateCSRF(app.identity, token.NewHMACCSRFGenerator("csrf-secret-that-is-at-least-32-characters"), log)
	issuer := token.NewJWTIssuer(token.JWTConfig{
		Secret:   "backend-token-secret-at-least-32-characters",
		Issuer:   "repair-desk",
		Audience: "repair-desk-api",
		TTL:      5 * time.Minute,
	})
	cookie := SessionCookie{Name: testCookieName}

	routes := Routes{
		Gate: NewGate(usecase.NewAuthorizeRequest(app.identity, roles, log), cookie, "/health", "/metrics"),
		Auth: NewAuthHandler(
			usecase.NewSignIn(v, app.identity, roles, log),
			usecase.NewSignUp(v, app.identity, app.profiles, app.comps, testBaseURL+"/auth/callback", log),
			usecase.NewRequestPasswordReset(v, app.identity, testBaseURL+"/update-password", log),
			usecase.NewSignOut(app.identity, roles, log),
			cookie,
		),
		Dashboard:          NewDashboardHandler(usecase.NewListDashboard(app.tickets, roles, log)),
		Ticket:             NewTicketHandler(usecase.NewCreateTicket(v, app.tickets, roles, log), csrfUC, cookie),
		Session:            NewSessionHandler(usecase.NewGetSession(app.identity, app.profiles, roles, issuer, log), cookie),
		CSRF:               NewCSRFHandler(csrfUC, cookie),
		Internal:           NewInternalHandler(usecase.NewRetryCompensations(app.identity, app.comps, log)),
		Health:             NewHealthHandler(healthChecks),
		InternalMiddleware: []echo.MiddlewareFunc{appmiddleware.InternalAuth(testInternalSecret)},
	}

	app.e = echo.New()
	routes.Register(app.e)
	return app
}

// register creates an identity and, when role is non-empty, its profile.
func (a *testApp) register(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	ctx := context.Background()

	id, err := a.identity.CreateIdentity(ctx, domain.NewIdentity{Email: email, Password: testPassword, Role: role})
	require.NoError(t, err)
	if role != "" {
		require.NoError(t, a.profiles.InsertProfile(ctx, &domain.Profile{ID: id, FullName: "Test User", Email: email, Role: role}))
	}
	return id
}

// signIn returns a session token for a registered email.
func (a *testApp) signIn(t *testing.T, email string) string {
	t.Helper()
	sess, err := a.identity.Authenticate(context.Background(), email, testPassword)
	require.NoError(t, err)
	return sess.Token
}

type request struct {
	method  string
	path    string
	body    string
	form    bool
	html    bool
	token   string
	headers map[string]string
}

func (a *testApp) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, strings.NewReader(r.body))
	switch {
	case r.form:
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	case r.body != "":
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.html {
		req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
	}
	if r.token != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: r.token})
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sessionCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	return nil
}
