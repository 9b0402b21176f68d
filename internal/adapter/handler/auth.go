package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"repair-desk/internal/domain"
	"repair-desk/internal/usecase"
	"repair-desk/metrics"
	"repair-desk/utils/logger"

	"github.com/labstack/echo/v4"
)

// Flow names used for metrics and log context.
const (
	flowSignIn        = "sign_in"
	flowSignUp        = "sign_up"
	flowResetPassword = "reset_password"
	flowSignOut       = "sign_out"
)

// AuthHandler serves the sign-in, sign-up, password reset and sign-out flows.
type AuthHandler struct {
	signIn  *usecase.SignIn
	signUp  *usecase.SignUp
	reset   *usecase.RequestPasswordReset
	signOut *usecase.SignOut
	cookie  SessionCookie
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	signIn *usecase.SignIn,
	signUp *usecase.SignUp,
	reset *usecase.RequestPasswordReset,
	signOut *usecase.SignOut,
	cookie SessionCookie,
) *AuthHandler {
	return &AuthHandler{signIn: signIn, signUp: signUp, reset: reset, signOut: signOut, cookie: cookie}
}

type formField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type formDescriptor struct {
	Flow   string      `json:"flow"`
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []formField `json:"fields"`
}

var (
	emailField    = formField{Name: "email", Type: "email", Label: "Email", Required: true}
	passwordField = formField{Name: "password", Type: "password", Label: "Password", Required: true}
)

func roleOptions() []string {
	out := make([]string, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		out = append(out, r.String())
	}
	return out
}

// SignInForm describes the sign-in form.
func (h *AuthHandler) SignInForm(c echo.Context) error {
	return c.JSON(http.StatusOK, formDescriptor{
		Flow: flowSignIn, Action: domain.SignInPath, Method: http.MethodPost,
		Fields: []formField{emailField, passwordField},
	})
}

// SignUpForm describes the sign-up form.
func (h *AuthHandler) SignUpForm(c echo.Context) error {
	return c.JSON(http.StatusOK, formDescriptor{
		Flow: flowSignUp, Action: domain.SignUpPath, Method: http.MethodPost,
		Fields: []formField{
			emailField,
			passwordField,
			{Name: "full_name", Type: "text", Label: "Full name", Required: true},
			{Name: "role", Type: "select", Label: "Role", Required: true, Options: roleOptions()},
		},
	})
}

// ResetPasswordForm describes the password reset request form.
func (h *AuthHandler) ResetPasswordForm(c echo.Context) error {
	return c.JSON(http.StatusOK, formDescriptor{
		Flow: flowResetPassword, Action: domain.ResetPasswordPath, Method: http.MethodPost,
		Fields: []formField{emailField},
	})
}

// SignIn authenticates the posted credentials and routes the user to their dashboard.
func (h *AuthHandler) SignIn(c echo.Context) (err error) {
	ctx, done := startFlow(c, flowSignIn)
	defer func() { done(err) }()

	var in usecase.SignInInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.signIn.Execute(ctx, in)
	if result != nil && result.Session != nil {
		// The provider authenticated even when the role is unknown.
		h.cookie.Set(c, result.Session)
	}
	if err != nil {
		return mapDomainError(err)
	}

	return respondFlow(c, flowResponse{OK: true, Redirect: result.Redirect})
}

// SignUp registers a new account.
func (h *AuthHandler) SignUp(c echo.Context) (err error) {
	ctx, done := startFlow(c, flowSignUp)
	defer func() { done(err) }()

	var in usecase.SignUpInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.signUp.Execute(ctx, in)
	if err != nil {
		return mapDomainError(err)
	}

	return respondFlow(c, flowResponse{OK: true, Redirect: result.Redirect, Message: result.Notice})
}

// ResetPassword starts a password reset. The answer is the same whether or
// not the email belongs to an account.
func (h *AuthHandler) ResetPassword(c echo.Context) (err error) {
	ctx, done := startFlow(c, flowResetPassword)
	defer func() { done(err) }()

	var in usecase.ResetPasswordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ack, err := h.reset.Execute(ctx, in)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, flowResponse{OK: true, Message: ack.Message})
}

// SignOut revokes the session, clears the cookie and sends the user to sign-in.
func (h *AuthHandler) SignOut(c echo.Context) (err error) {
	ctx, done := startFlow(c, flowSignOut)
	defer func() { done(err) }()

	if serr := h.signOut.Execute(ctx, h.cookie.Token(c)); serr != nil {
		slog.WarnContext(ctx, "session revocation failed, clearing cookie anyway", "error", serr)
	}
	h.cookie.Clear(c)

	return respondFlow(c, flowResponse{OK: true, Redirect: domain.SignInPath})
}

// startFlow tags the request context with the flow name and returns a func
// that records the outcome.
func startFlow(c echo.Context, flow string) (context.Context, func(error)) {
	start := time.Now()
	req := c.Request()
	fctx := logger.WithFlow(req.Context(), flow)
	c.SetRequest(req.WithContext(fctx))

	return fctx, func(err error) {
		metrics.RecordFlow(flow, flowResult(err), time.Since(start).Seconds())
	}
}

func flowResult(err error) string {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &he) && he.Code < http.StatusInternalServerError:
		return "rejected"
	default:
		return "error"
	}
}
