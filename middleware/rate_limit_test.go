package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newLimitedEcho(rl *RateLimiter) *echo.Echo {
	e := echo.New()
	e.POST("/sign-in", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, rl.Middleware())
	return e
}

func postFrom(e *echo.Echo, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 5)
	defer rl.Stop()
	e := newLimitedEcho(rl)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, postFrom(e, "10.0.0.1:1000").Code, "request %d", i)
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()
	e := newLimitedEcho(rl)

	assert.Equal(t, http.StatusOK, postFrom(e, "10.0.0.1:1000").Code)

	rec := postFrom(e, "10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_DifferentIPsGetSeparateLimits(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()
	e := newLimitedEcho(rl)

	assert.Equal(t, http.StatusOK, postFrom(e, "1.2.3.4:1234").Code)
	assert.Equal(t, http.StatusOK, postFrom(e, "5.6.7.8:5678").Code)
	assert.Equal(t, http.StatusTooManyRequests, postFrom(e, "1.2.3.4:1234").Code)
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.getLimiter("1.1.1.1")

	now = now.Add(2 * time.Minute)
	rl.getLimiter("2.2.2.2")

	now = now.Add(4 * time.Minute)
	rl.sweep()

	assert.Equal(t, 1, rl.size())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
