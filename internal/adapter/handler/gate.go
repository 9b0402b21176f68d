package handler

import (
	"net/http"

	"repair-desk/internal/usecase"
	"repair-desk/metrics"
	"repair-desk/utils/logger"

	"github.com/labstack/echo/v4"
)

// Gate runs the authorization decision in front of every route.
type Gate struct {
	uc     *usecase.AuthorizeRequest
	cookie SessionCookie
	skip   map[string]struct{}
}

// NewGate creates the gate middleware. skipPaths bypass it entirely.
func NewGate(uc *usecase.AuthorizeRequest, cookie SessionCookie, skipPaths ...string) *Gate {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return &Gate{uc: uc, cookie: cookie, skip: skip}
}

// Middleware returns the echo middleware.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := g.skip[req.URL.Path]; ok {
				return next(c)
			}

			ctx := req.Context()
			decision := g.uc.Execute(ctx, req.URL.Path, g.cookie.Token(c))
			metrics.RecordGate(string(decision.Class), string(decision.Outcome))

			if decision.Redirect() {
				return c.Redirect(redirectStatus(req.Method), decision.Location)
			}

			if decision.Session != nil {
				setSession(c, decision.Session)
				c.SetRequest(req.WithContext(logger.WithUserID(ctx, decision.Session.IdentityID)))
			}
			return next(c)
		}
	}
}

// redirectStatus keeps the method for reads and turns anything else into a
// GET on the target.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusTemporaryRedirect
	}
	return http.StatusSeeOther
}
