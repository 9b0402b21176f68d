package usecase

import (
	"context"
	"errors"
	"log/slog"

	"repair-desk/internal/domain"
)

// GateOutcome is the result of evaluating a request at the gate.
type GateOutcome string

const (
	OutcomeAllow             GateOutcome = "allow"
	OutcomeRedirectSignIn    GateOutcome = "redirect_sign_in"
	OutcomeRedirectDashboard GateOutcome = "redirect_dashboard"
)

// GateDecision is what the gate decided for one request. Location is set for
// redirects. Session is the resolved session, if any.
type GateDecision struct {
	Outcome  GateOutcome
	Location string
	Class    domain.RouteClass
	Session  *domain.Session
}

// Redirect reports whether the decision sends the client elsewhere.
func (d GateDecision) Redirect() bool {
	return d.Outcome != OutcomeAllow
}

// AuthorizeRequest decides, for every inbound request, whether to allow it,
// send it to sign-in, or send it to the caller's dashboard. It never fails:
// lookup errors degrade to the decision that would be taken without the
// missing information.
type AuthorizeRequest struct {
	identity domain.IdentityProvider
	roles    *RoleLookup
	logger   *slog.Logger
}

// NewAuthorizeRequest creates a new AuthorizeRequest usecase.
func NewAuthorizeRequest(ip domain.IdentityProvider, roles *RoleLookup, l *slog.Logger) *AuthorizeRequest {
	return &AuthorizeRequest{identity: ip, roles: roles, logger: l}
}

// Execute evaluates path for the given session token (empty when the client
// sent none).
func (uc *AuthorizeRequest) Execute(ctx context.Context, path, sessionToken string) GateDecision {
	class := domain.ClassifyRoute(path)
	decision := GateDecision{Outcome: OutcomeAllow, Class: class}

	if class == domain.RouteAPI {
		return decision
	}

	session := uc.lookupSession(ctx, sessionToken)
	decision.Session = session

	switch {
	case session == nil && class == domain.RouteProtected:
		decision.Outcome = OutcomeRedirectSignIn
		decision.Location = domain.SignInPath

	case session != nil && class == domain.RoutePublicAuth:
		role, err := uc.roles.Resolve(ctx, session.IdentityID)
		if err != nil {
			uc.logger.WarnContext(ctx, "role unresolved for signed-in user on auth page",
				"identity_id", session.IdentityID, "path", path, "error", err)
			return decision
		}
		decision.Outcome = OutcomeRedirectDashboard
		decision.Location = role.DashboardPath()
	}

	return decision
}

func (uc *AuthorizeRequest) lookupSession(ctx context.Context, token string) *domain.Session {
	if token == "" {
		return nil
	}

	session, err := uc.identity.GetSession(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrSessionInactive) {
			uc.logger.WarnContext(ctx, "session lookup failed, treating request as signed out", "error", err)
		}
		return nil
	}
	if session == nil || !session.Active || session.IdentityID == "" {
		return nil
	}
	return session
}
