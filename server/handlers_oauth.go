package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/craterhub/authcore/auth"
	"github.com/craterhub/authcore/clients"
	"github.com/craterhub/authcore/oauthmodel"
	"github.com/craterhub/authcore/scopes"
)

// Authorize begins an authorization flow for the signed-in user. The response
// body carries everything needed to render the consent prompt.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parseAuthorizationParameters(r)
		if params.ClientID == "" {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "client_id is required", http.StatusBadRequest)
			return
		}

		requested, err := scopes.Parse(params.Scope)
		if err != nil {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}

		accessRequest, err := s.auth.Begin(params.ClientID, requested, params.RedirectURI, params.State, requestUserID(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, accessRequest)
	}
}

// redirectResponse carries the URI the user agent should be sent to after a
// flow is settled.
type redirectResponse struct {
	RedirectURI string `json:"redirect_uri"`
}

// Accept settles a pending flow in the client's favour and returns the
// redirect carrying the single-use authorization code.
func (s *Server) Accept() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := flowIDFromRequest(r)
		if flowID == "" {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "flow_id is required", http.StatusBadRequest)
			return
		}

		redirectURI, err := s.auth.Accept(flowID, requestUserID(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, redirectResponse{RedirectURI: redirectURI})
	}
}

// Reject settles a pending flow against the client. The redirect carries the
// standard access_denied error instead of a code.
func (s *Server) Reject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := flowIDFromRequest(r)
		if flowID == "" {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "flow_id is required", http.StatusBadRequest)
			return
		}

		redirectURI, err := s.auth.Reject(flowID, requestUserID(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, redirectResponse{RedirectURI: redirectURI})
	}
}

// Token exchanges an authorization code for an access token.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "failed to parse form data", http.StatusBadRequest)
			return
		}

		tokenRequest := oauthmodel.TokenRequest{
			GrantType:    r.FormValue("grant_type"),
			Code:         r.FormValue("code"),
			RedirectURI:  r.FormValue("redirect_uri"),
			ClientID:     r.FormValue("client_id"),
			ClientSecret: r.FormValue("client_secret"),
		}

		// Client credentials may also arrive as HTTP Basic auth.
		if tokenRequest.ClientID == "" {
			tokenRequest.ClientID, tokenRequest.ClientSecret = basicClientCredentials(r)
		}

		tokenResponse, err := s.auth.Exchange(tokenRequest)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, tokenResponse)
	}
}

// Helper functions

// parseAuthorizationParameters extracts OAuth2 authorization parameters from
// the request query string.
func parseAuthorizationParameters(r *http.Request) oauthmodel.AuthorizationParameters {
	query := r.URL.Query()
	return oauthmodel.AuthorizationParameters{
		ClientID:    query.Get("client_id"),
		Scope:       query.Get("scope"),
		RedirectURI: query.Get("redirect_uri"),
		State:       query.Get("state"),
	}
}

func flowIDFromRequest(r *http.Request) string {
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.FormValue("flow_id")
}

// basicClientCredentials decodes client_id and client_secret from an HTTP
// Basic Authorization header, if one is present.
func basicClientCredentials(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return "", ""
	}
	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ""
	}
	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return "", ""
	}
	return credentials[0], credentials[1]
}

// writeServiceError maps domain errors onto the OAuth2 wire codes. The
// mapping is deliberately coarse so a caller cannot probe why a request was
// refused.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnknownClient),
		errors.Is(err, auth.ErrRedirectMismatch),
		errors.Is(err, auth.ErrFlowNotFound),
		errors.Is(err, clients.ErrValidation),
		errors.Is(err, clients.ErrScopeCeilingInUse):
		writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrFlowOwnerMismatch):
		writeOAuthError(w, oauthmodel.ErrorCodeAccessDenied, err.Error(), http.StatusForbidden)
	case errors.Is(err, auth.ErrUnsupportedGrantType):
		writeOAuthError(w, oauthmodel.ErrorCodeUnsupportedGrantType, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidClient):
		writeOAuthError(w, oauthmodel.ErrorCodeInvalidClient, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidGrant):
		writeOAuthError(w, oauthmodel.ErrorCodeInvalidGrant, err.Error(), http.StatusBadRequest)
	case errors.Is(err, clients.ErrNotFound):
		writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, err.Error(), http.StatusNotFound)
	case errors.Is(err, clients.ErrNotOwner):
		writeOAuthError(w, oauthmodel.ErrorCodeAccessDenied, err.Error(), http.StatusForbidden)
	default:
		s.logger.Error().Err(err).Msg("unhandled service error")
		writeOAuthError(w, oauthmodel.ErrorCodeServerError, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeOAuthError writes an OAuth2 error response
func writeOAuthError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(oauthmodel.ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	})
}
