package server

import (
	"encoding/json"
	"net/http"

	"github.com/craterhub/authcore/clients"
	"github.com/craterhub/authcore/oauthmodel"
	"github.com/craterhub/authcore/scopes"
)

type createClientRequest struct {
	Name         string   `json:"name"`
	IconURL      string   `json:"icon_url"`
	MaxScopes    string   `json:"max_scopes"`
	RedirectURIs []string `json:"redirect_uris"`
}

// createClientResponse returns the registered client together with its
// plaintext secret. The secret is shown exactly once; only its hash is kept.
type createClientResponse struct {
	Client       *clients.Client `json:"client"`
	ClientSecret string          `json:"client_secret"`
}

type updateClientRequest struct {
	Name      *string `json:"name"`
	IconURL   *string `json:"icon_url"`
	MaxScopes *string `json:"max_scopes"`
}

type redirectURIsRequest struct {
	URIs   []string `json:"uris,omitempty"`
	URIIDs []string `json:"uri_ids,omitempty"`
}

func (s *Server) CreateClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request createClientRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "invalid request body", http.StatusBadRequest)
			return
		}

		maxScopes, err := scopes.Parse(request.MaxScopes)
		if err != nil {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}

		client, secret, err := s.registry.Register(request.Name, request.IconURL, maxScopes, request.RedirectURIs, requestUserID(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createClientResponse{Client: client, ClientSecret: secret})
	}
}

func (s *Server) ListClients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owned, err := s.registry.ListByOwner(requestUserID(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, owned)
	}
}

func (s *Server) GetClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.registry.Get(r.PathValue("id"))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func (s *Server) UpdateClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request updateClientRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "invalid request body", http.StatusBadRequest)
			return
		}

		var maxScopes *scopes.Scopes
		if request.MaxScopes != nil {
			parsed, err := scopes.Parse(*request.MaxScopes)
			if err != nil {
				writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, err.Error(), http.StatusBadRequest)
				return
			}
			maxScopes = &parsed
		}

		client, err := s.registry.UpdateEditableFields(r.PathValue("id"), requestUserID(r), request.Name, request.IconURL, maxScopes)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func (s *Server) DeleteClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.registry.Remove(r.PathValue("id"), requestUserID(r)); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) AddClientRedirects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request redirectURIsRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "invalid request body", http.StatusBadRequest)
			return
		}

		clientID := r.PathValue("id")
		if err := s.registry.AddRedirectURIs(clientID, requestUserID(r), request.URIs); err != nil {
			s.writeServiceError(w, err)
			return
		}

		client, err := s.registry.Get(clientID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func (s *Server) RemoveClientRedirects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request redirectURIsRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.registry.RemoveRedirectURIs(r.PathValue("id"), requestUserID(r), request.URIIDs); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
