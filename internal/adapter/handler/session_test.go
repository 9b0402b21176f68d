package handler

import (
	"net/http"
	"testing"

	"repair-desk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHandler(t *testing.T) {
	app := newTestApp(t, nil)
	id := app.register(t, "pm@example.com", domain.RolePropertyManager)
	token := app.signIn(t, "pm@example.com")

	rec := app.do(request{method: http.MethodGet, path: "/api/session", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.NotEmpty(t, rec.Header().Get(BackendTokenHeader))
	body := decode[sessionResponse](t, rec)
	assert.True(t, body.OK)
	assert.Equal(t, id, body.User.ID)
	assert.Equal(t, "pm@example.com", body.User.Email)
	assert.Equal(t, "property_manager", body.User.Role)
	assert.Equal(t, "/property_manager/dashboard", body.User.Dashboard)
	assert.True(t, body.Session.Active)
	assert.NotEmpty(t, body.Session.ID)
}

func TestSessionHandler_Unauthorized(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		name  string
		token string
	}{
		{"no cookie", ""},
		{"unknown token", "not-a-session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(request{method: http.MethodGet, path: "/api/session", token: tt.token})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Header().Get(BackendTokenHeader))
		})
	}
}

func TestCSRFHandler_RequiresSession(t *testing.T) {
	app := newTestApp(t, nil)

	assert.Equal(t, http.StatusUnauthorized, app.do(request{method: http.MethodGet, path: "/api/csrf"}).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(request{method: http.MethodGet, path: "/api/csrf", token: "stale"}).Code)
}
