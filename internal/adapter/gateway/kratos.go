package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	kratos "github.com/ory/kratos-client-go"

	"repair-desk/internal/domain"
)

// KratosGateway implements domain.IdentityProvider on Ory Kratos native flows.
// The public API serves flows and sessions, the admin API identity lookup and
// deletion.
type KratosGateway struct {
	public  *kratos.APIClient
	admin   *kratos.APIClient
	timeout time.Duration
}

// NewKratosGateway creates a new Kratos gateway with tuned HTTP transport.
// adminBaseURL may be empty, in which case admin operations return
// domain.ErrAdminNotConfigured.
func NewKratosGateway(baseURL, adminBaseURL string, timeout time.Duration) *KratosGateway {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	gw := &KratosGateway{
		public:  newAPIClient(baseURL, httpClient),
		timeout: timeout,
	}
	if adminBaseURL != "" {
		gw.admin = newAPIClient(adminBaseURL, httpClient)
	}
	return gw
}

func newAPIClient(serverURL string, httpClient *http.Client) *kratos.APIClient {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: serverURL},
	}
	configuration.HTTPClient = httpClient
	if configuration.DefaultHeader == nil {
		configuration.DefaultHeader = make(map[string]string)
	}
	configuration.DefaultHeader["Accept"] = "application/json"
	return kratos.NewAPIClient(configuration)
}

// CreateIdentity registers through a native registration flow. Full name and
// role are stored as traits; the confirmation URL travels in the transient
// payload for the verification hook.
func (g *KratosGateway) CreateIdentity(ctx context.Context, in domain.NewIdentity) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	flow, resp, err := g.public.FrontendAPI.CreateNativeRegistrationFlow(ctx).Execute()
	if err != nil {
		return "", classifyError(err, resp, opRegister)
	}

	body := kratos.UpdateRegistrationFlowWithPasswordMethod{
		Method:   "password",
		Password: in.Password,
		Traits: map[string]interface{}{
			"email": in.Email,
			"name":  in.FullName,
			"role":  string(in.Role),
		},
	}
	if in.ConfirmationURL != "" {
		body.TransientPayload = map[string]interface{}{"confirmation_url": in.ConfirmationURL}
	}

	result, resp, err := g.public.FrontendAPI.
		UpdateRegistrationFlow(ctx).
		Flow(flow.Id).
		UpdateRegistrationFlowBody(kratos.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(&body)).
		Execute()
	if err != nil {
		return "", classifyError(err, resp, opRegister)
	}

	identity := result.GetIdentity()
	if identity.Id == "" {
		return "", domain.ErrMissingIdentity
	}
	return identity.Id, nil
}

// Authenticate signs in through a native login flow and returns the new session.
func (g *KratosGateway) Authenticate(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	flow, resp, err := g.public.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, classifyError(err, resp, opLogin)
	}

	body := kratos.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: email,
		Password:   password,
	}
	result, resp, err := g.public.FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(kratos.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&body)).
		Execute()
	if err != nil {
		return nil, classifyError(err, resp, opLogin)
	}

	session := result.GetSession()
	out := toDomainSession(&session)
	out.Token = result.GetSessionToken()
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login returned no session token", domain.ErrProviderUnavailable)
	}
	return out, nil
}

// GetSession resolves a session token.
func (g *KratosGateway) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	session, resp, err := g.public.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		return nil, classifyError(err, resp, opSession)
	}

	if session.Active != nil && !*session.Active {
		return nil, domain.ErrSessionInactive
	}
	if session.Identity == nil {
		return nil, domain.ErrMissingIdentity
	}

	out := toDomainSession(session)
	out.Token = token
	return out, nil
}

// RequestPasswordReset submits a native recovery flow with the link method.
func (g *KratosGateway) RequestPasswordReset(ctx context.Context, email, callbackURL string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	flow, resp, err := g.public.FrontendAPI.CreateNativeRecoveryFlow(ctx).Execute()
	if err != nil {
		return classifyError(err, resp, opRecovery)
	}

	body := kratos.UpdateRecoveryFlowWithLinkMethod{
		Method: "link",
		Email:  email,
	}
	if callbackURL != "" {
		body.TransientPayload = map[string]interface{}{"return_to": callbackURL}
	}

	_, resp, err = g.public.FrontendAPI.
		UpdateRecoveryFlow(ctx).
		Flow(flow.Id).
		UpdateRecoveryFlowBody(kratos.UpdateRecoveryFlowWithLinkMethodAsUpdateRecoveryFlowBody(&body)).
		Execute()
	if err != nil {
		return classifyError(err, resp, opRecovery)
	}
	return nil
}

// SignOut revokes a session token.
func (g *KratosGateway) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.public.FrontendAPI.
		PerformNativeLogout(ctx).
		PerformNativeLogoutBody(*kratos.NewPerformNativeLogoutBody(token)).
		Execute()
	if err != nil {
		return classifyError(err, resp, opSession)
	}
	return nil
}

// DeleteIdentity removes an identity through the admin API. An identity that
// is already gone counts as deleted.
func (g *KratosGateway) DeleteIdentity(ctx context.Context, identityID string) error {
	if g.admin == nil {
		return domain.ErrAdminNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.admin.IdentityAPI.DeleteIdentity(ctx, identityID).Execute()
	if err != nil {
		cerr := classifyError(err, resp, opAdmin)
		if errors.Is(cerr, domain.ErrIdentityNotFound) {
			return nil
		}
		return cerr
	}
	return nil
}

// IdentityExists reports whether the admin API knows identityID.
func (g *KratosGateway) IdentityExists(ctx context.Context, identityID string) (bool, error) {
	if g.admin == nil {
		return false, domain.ErrAdminNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	_, resp, err := g.admin.IdentityAPI.GetIdentity(ctx, identityID).Execute()
	if err != nil {
		cerr := classifyError(err, resp, opAdmin)
		if errors.Is(cerr, domain.ErrIdentityNotFound) {
			return false, nil
		}
		return false, cerr
	}
	return true, nil
}

func toDomainSession(s *kratos.Session) *domain.Session {
	out := &domain.Session{
		ID:     s.Id,
		Active: s.Active == nil || *s.Active,
	}
	if s.ExpiresAt != nil {
		out.ExpiresAt = *s.ExpiresAt
	}
	if s.Identity != nil {
		out.IdentityID = s.Identity.Id
		out.Email = traitString(s.Identity.Traits, "email")
	}
	return out
}

func traitString(traits interface{}, key string) string {
	m, ok := traits.(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

type operation int

const (
	opRegister operation = iota
	opLogin
	opSession
	opRecovery
	opAdmin
)

// classifyError maps a failed Kratos call onto the domain error taxonomy.
// No response or a 5xx means the provider is unreachable.
func classifyError(err error, resp *http.Response, op operation) error {
	if resp == nil {
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	status := resp.StatusCode
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: kratos returned status %d", domain.ErrProviderUnavailable, status)
	}

	switch op {
	case opLogin:
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return domain.ErrInvalidCredentials
		}
	case opSession:
		switch status {
		case http.StatusUnauthorized, http.StatusBadRequest, http.StatusNotFound:
			return domain.ErrSessionNotFound
		case http.StatusForbidden:
			return domain.ErrSessionInactive
		}
	case opAdmin:
		if status == http.StatusNotFound {
			return domain.ErrIdentityNotFound
		}
	case opRegister, opRecovery:
		if status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity {
			return &domain.ProviderError{Message: rejectionMessage(err, op)}
		}
	}

	return fmt.Errorf("%w: kratos returned status %d", domain.ErrProviderUnavailable, status)
}

// rejectionMessage pulls the first user-facing message out of a Kratos error
// body: flow UI messages, then node messages, then the generic error object.
func rejectionMessage(err error, op operation) string {
	fallback := "Registration was rejected"
	if op == opRecovery {
		fallback = "Password reset was rejected"
	}

	var apiErr *kratos.GenericOpenAPIError
	if !errors.As(err, &apiErr) {
		return fallback
	}

	var body struct {
		UI struct {
			Messages []kratosMessage `json:"messages"`
			Nodes    []struct {
				Messages []kratosMessage `json:"messages"`
			} `json:"nodes"`
		} `json:"ui"`
		Error struct {
			Message string `json:"message"`
			Reason  string `json:"reason"`
		} `json:"error"`
	}
	if jerr := json.Unmarshal(apiErr.Body(), &body); jerr != nil {
		return fallback
	}

	for _, m := range body.UI.Messages {
		if t := strings.TrimSpace(m.Text); t != "" {
			return t
		}
	}
	for _, n := range body.UI.Nodes {
		for _, m := range n.Messages {
			if t := strings.TrimSpace(m.Text); t != "" && m.Type == "error" {
				return t
			}
		}
	}
	if body.Error.Reason != "" {
		return body.Error.Reason
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return fallback
}

type kratosMessage struct {
	Text string `json:"text"`
	Type string `json:"type"`
}
