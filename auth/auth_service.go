package auth

import (
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"time"

	"github.com/craterhub/authcore/clients"
	"github.com/craterhub/authcore/grants"
	"github.com/craterhub/authcore/oauth2"
	"github.com/craterhub/authcore/oauthmodel"
	"github.com/craterhub/authcore/scopes"
	"github.com/craterhub/authcore/token"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	codeGenerationLength = 32
	defaultFlowTTL       = 15 * time.Minute
)

// Repos holds all repository dependencies for the AuthorizationService
type Repos struct {
	Clients clients.Repo // Repository for OAuth2 client data
	Grants  grants.Repo  // Repository for (client, user) grants
	Flows   FlowRepo     // TTL store for ephemeral flow state
}

// AuthorizationService drives the authorize → accept/reject → exchange
// protocol and mints tokens on successful exchanges.
type AuthorizationService struct {
	repos        Repos
	tokenCreator *token.Manager   // Create and verify access tokens
	flowTTL      time.Duration    // Lifetime of a flow from Begin
	nowTime      func() time.Time // nowTime function (injectable for testing)
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithFlowTTL overrides the default flow lifetime.
func WithFlowTTL(ttl time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.flowTTL = ttl
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewAuthorizationService(
	repos Repos,
	tokenCreator *token.Manager,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	if repos.Clients == nil {
		return nil, errors.New("[NewAuthorizationService] Clients repo is required")
	}
	if repos.Grants == nil {
		return nil, errors.New("[NewAuthorizationService] Grants repo is required")
	}
	if repos.Flows == nil {
		return nil, errors.New("[NewAuthorizationService] Flows repo is required")
	}
	if tokenCreator == nil {
		return nil, errors.New("[NewAuthorizationService] tokenCreator is required")
	}

	authService := &AuthorizationService{
		repos:        repos,
		tokenCreator: tokenCreator,
		flowTTL:      defaultFlowTTL,
		nowTime:      time.Now,
	}

	for _, opt := range options {
		opt(authService)
	}

	return authService, nil
}

// Begin starts an authorization flow for an authenticated user. The
// requested scopes are clamped to the client's ceiling by intersection;
// over-broad requests narrow silently rather than failing, so clients can
// always ask for everything they might want. The returned AccessRequest
// carries the flow ID and narrowed scope for the caller's consent prompt.
func (as *AuthorizationService) Begin(clientID string, requested scopes.Scopes, redirectURI, state, userID string) (*oauthmodel.AccessRequest, error) {
	client, err := as.repos.Clients.Get(clientID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, errors.Wrap(ErrUnknownClient, clientID)
		}
		return nil, errors.Wrap(err, "[Begin] Clients.Get")
	}

	capturedURI, err := resolveRedirectURI(client, redirectURI)
	if err != nil {
		return nil, err
	}

	narrowed := requested.Intersect(client.MaxScopes)
	now := as.nowTime()

	flow := &Flow{
		ID:          uuid.New().String(),
		ClientID:    client.ID,
		UserID:      userID,
		Scopes:      narrowed,
		RedirectURI: capturedURI,
		State:       state,
		Status:      FlowCreated,
		CreatedAt:   now,
		ExpiresAt:   now.Add(as.flowTTL),
	}
	if err := as.repos.Flows.Upsert(flow); err != nil {
		return nil, errors.Wrap(err, "[Begin] Flows.Upsert")
	}

	return &oauthmodel.AccessRequest{
		FlowID:          flow.ID,
		ClientID:        client.ID,
		ClientName:      client.Name,
		ClientIconURL:   client.IconURL,
		RequestedScopes: narrowed.String(),
	}, nil
}

// Accept records the user's consent, mints a single-use authorization code,
// and returns the redirect target carrying code and state. The state check
// and transition happen inside the flow store's critical section, so an
// accept racing a reject of the same flow cannot resurrect it.
func (as *AuthorizationService) Accept(flowID, userID string) (string, error) {
	bytes := make([]byte, codeGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[Accept] rand.Read")
	}
	code := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes)

	flow, err := as.repos.Flows.Accept(flowID, userID, code, as.nowTime())
	if err != nil {
		return "", settlementError(err, "[Accept] Flows.Accept")
	}

	return redirectWithParams(flow.RedirectURI, map[string]string{
		"code":  flow.Code,
		"state": flow.State,
	})
}

// Reject settles the flow without issuing a code and returns the redirect
// target carrying error=access_denied. The flow is gone afterwards; a later
// accept fails ErrFlowNotFound.
func (as *AuthorizationService) Reject(flowID, userID string) (string, error) {
	flow, err := as.repos.Flows.Reject(flowID, userID, as.nowTime())
	if err != nil {
		return "", settlementError(err, "[Reject] Flows.Reject")
	}

	return redirectWithParams(flow.RedirectURI, map[string]string{
		"error": oauthmodel.ErrorCodeAccessDenied,
		"state": flow.State,
	})
}

// settlementError passes the protocol sentinels through untouched and wraps
// anything else so store failures stay visible to the caller.
func settlementError(err error, context string) error {
	if errors.Is(err, ErrFlowNotFound) || errors.Is(err, ErrFlowOwnerMismatch) {
		return err
	}
	return errors.Wrap(err, context)
}

// Exchange validates a token request and trades an authorization code for a
// bearer token. The code is consumed exactly once: the flow transitions to
// Exchanged atomically in the flow store, so of any concurrent exchange
// attempts with the same code, exactly one proceeds past ConsumeCode. A code
// consumed by a request that then fails validation stays dead; replaying a
// code never succeeds.
func (as *AuthorizationService) Exchange(request oauthmodel.TokenRequest) (*oauth2.TokenResponse, error) {
	if request.GrantType != oauthmodel.GrantTypeAuthorizationCode {
		return nil, errors.Wrap(ErrUnsupportedGrantType, request.GrantType)
	}

	client, err := as.repos.Clients.Get(request.ClientID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, errors.Wrap(err, "[Exchange] Clients.Get")
	}
	if !clients.VerifySecret(request.ClientSecret, client.SecretHash) {
		return nil, ErrInvalidClient
	}

	now := as.nowTime()
	flow, err := as.repos.Flows.ConsumeCode(request.Code, now)
	if err != nil {
		if errors.Is(err, ErrFlowNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, errors.Wrap(err, "[Exchange] Flows.ConsumeCode")
	}
	if flow.ClientID != client.ID {
		return nil, ErrInvalidGrant
	}
	if request.RedirectURI != "" && request.RedirectURI != flow.RedirectURI {
		return nil, ErrInvalidGrant
	}

	if err := as.repos.Grants.Upsert(&grants.Authorization{
		ID:       uuid.New().String(),
		ClientID: client.ID,
		UserID:   flow.UserID,
		Scopes:   flow.Scopes,
		Created:  now,
	}); err != nil {
		return nil, errors.Wrap(err, "[Exchange] Grants.Upsert")
	}

	accessToken, expiresIn, err := as.tokenCreator.GenerateAccessToken(flow.UserID, client.ID, flow.Scopes)
	if err != nil {
		return nil, errors.Wrap(err, "[Exchange] GenerateAccessToken")
	}

	return &oauth2.TokenResponse{
		AccessToken: accessToken,
		TokenType:   oauth2.TokenTypeBearer,
		ExpiresIn:   expiresIn,
		Scope:       flow.Scopes.String(),
	}, nil
}

// resolveRedirectURI picks the URI the flow will capture. A supplied URI
// must exactly match a registered one; when omitted, the client's sole
// registered URI is used.
func resolveRedirectURI(client *clients.Client, redirectURI string) (string, error) {
	if redirectURI == "" {
		if len(client.RedirectURIs) != 1 {
			return "", ErrRedirectMismatch
		}
		return client.RedirectURIs[0].URI, nil
	}
	if !client.HasRedirectURI(redirectURI) {
		return "", ErrRedirectMismatch
	}
	return redirectURI, nil
}

func redirectWithParams(redirectURI string, params map[string]string) (string, error) {
	target, err := url.Parse(redirectURI)
	if err != nil {
		return "", errors.Wrap(err, "redirectWithParams url.Parse")
	}
	query := target.Query()
	for key, value := range params {
		if value != "" {
			query.Set(key, value)
		}
	}
	target.RawQuery = query.Encode()
	return target.String(), nil
}
