package server

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/craterhub/authcore/grants"
	"github.com/craterhub/authcore/oauthmodel"
)

// authorizationResponse is one row of the user's grant listing: which client
// holds access, and the accumulated scope set.
type authorizationResponse struct {
	ClientID   string    `json:"client_id"`
	ClientName string    `json:"client_name,omitempty"`
	ScopeBits  uint64    `json:"scope_bits"`
	Scope      string    `json:"scope"`
	Created    time.Time `json:"created"`
}

// ListAuthorizations returns every grant the signed-in user has made.
func (s *Server) ListAuthorizations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userGrants, err := s.grants.ListForUser(requestUserID(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		response := make([]authorizationResponse, 0, len(userGrants))
		for _, grant := range userGrants {
			row := authorizationResponse{
				ClientID:  grant.ClientID,
				ScopeBits: grant.Scopes.Bits(),
				Scope:     grant.Scopes.String(),
				Created:   grant.Created,
			}
			if client, err := s.registry.Get(grant.ClientID); err == nil {
				row.ClientName = client.Name
			}
			response = append(response, row)
		}
		writeJSON(w, http.StatusOK, response)
	}
}

// RevokeAuthorization removes the signed-in user's grant to a client. Tokens
// already issued stay valid until they expire; revocation only stops the
// record from accumulating further scope.
func (s *Server) RevokeAuthorization() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := r.URL.Query().Get("client_id")
		if clientID == "" {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "client_id is required", http.StatusBadRequest)
			return
		}

		err := s.grants.Delete(clientID, requestUserID(r))
		if err != nil && !errors.Is(err, grants.ErrNotFound) {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
