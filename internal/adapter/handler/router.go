package handler

import (
	"repair-desk/internal/domain"

	"github.com/labstack/echo/v4"
)

// Routes groups the handlers mounted by Register.
type Routes struct {
	Gate      *Gate
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Ticket    *TicketHandler
	Session   *SessionHandler
	CSRF      *CSRFHandler
	Internal  *InternalHandler
	Health    *HealthHandler

	// FlowMiddleware wraps the account-flow POSTs, typically a rate limiter.
	FlowMiddleware []echo.MiddlewareFunc
	// APIMiddleware wraps /api/session and /api/csrf.
	APIMiddleware []echo.MiddlewareFunc
	// InternalMiddleware wraps /api/internal; nil Internal skips the group.
	InternalMiddleware []echo.MiddlewareFunc
}

// Register mounts every route on e behind the gate. /health must be in the
// gate's skip list.
func (r Routes) Register(e *echo.Echo) {
	e.Use(r.Gate.Middleware())
	e.GET("/health", r.Health.Handle)

	e.GET(domain.SignInPath, r.Auth.SignInForm)
	e.POST(domain.SignInPath, r.Auth.SignIn, r.FlowMiddleware...)
	e.GET(domain.SignUpPath, r.Auth.SignUpForm)
	e.POST(domain.SignUpPath, r.Auth.SignUp, r.FlowMiddleware...)
	e.GET(domain.ResetPasswordPath, r.Auth.ResetPasswordForm)
	e.POST(domain.ResetPasswordPath, r.Auth.ResetPassword, r.FlowMiddleware...)
	e.POST("/sign-out", r.Auth.SignOut)

	e.GET("/:role/dashboard", r.Dashboard.Handle)
	e.GET("/tickets/create", r.Ticket.Form)
	e.POST("/tickets/create", r.Ticket.Create)

	api := e.Group(domain.APIPrefix, r.APIMiddleware...)
	api.GET("/session", r.Session.Handle)
	api.GET("/csrf", r.CSRF.Handle)

	if r.Internal != nil {
		internal := e.Group(domain.APIPrefix+"/internal", r.InternalMiddleware...)
		internal.POST("/compensations/retry", r.Internal.HandleRetryCompensations)
	}
}
