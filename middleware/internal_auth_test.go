package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestInternalAuth(t *testing.T) {
	const secret = "shared-secret-for-compensation-replay"

	tests := []struct {
		name     string
		secret   string
		header   string
		wantCode int
	}{
		{"valid secret", secret, secret, http.StatusOK},
		{"missing header", secret, "", http.StatusUnauthorized},
		{"wrong secret", secret, "wrong-secret", http.StatusForbidden},
		{"disabled without secret", "", "anything", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.POST("/api/internal/compensations/retry", func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			}, InternalAuth(tt.secret))

			req := httptest.NewRequest(http.MethodPost, "/api/internal/compensations/retry", nil)
			if tt.header != "" {
				req.Header.Set("X-Internal-Auth", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
