package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/craterhub/authcore/oauthmodel"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyScopes stores the token's scope bits
	ContextKeyScopes ContextKey = "scopes"
)

// RequireUser validates the Bearer token in the Authorization header and
// injects the user it acts for into the request context.
func (s *Server) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeOAuthError(w, oauthmodel.ErrorCodeInvalidRequest, "missing bearer token", http.StatusUnauthorized)
			return
		}

		introspection, err := s.tokens.Introspect(raw)
		if err != nil || !introspection.Active {
			writeOAuthError(w, oauthmodel.ErrorCodeAccessDenied, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, introspection.Sub)
		ctx = context.WithValue(ctx, ContextKeyScopes, introspection.Scopes)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// requestUserID returns the authenticated user ID injected by RequireUser.
func requestUserID(r *http.Request) string {
	userID, _ := r.Context().Value(ContextKeyUserID).(string)
	return userID
}
