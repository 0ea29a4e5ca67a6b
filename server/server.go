// Package server exposes the authorization core over HTTP: the OAuth2
// authorization-code endpoints, client management, and the user's grant
// listing.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/craterhub/authcore/auth"
	"github.com/craterhub/authcore/clients"
	"github.com/craterhub/authcore/grants"
	"github.com/craterhub/authcore/internal/config"
	"github.com/craterhub/authcore/token"
)

// Services carries the domain services the HTTP layer fronts.
type Services struct {
	Auth     *auth.AuthorizationService
	Registry *clients.Registry
	Grants   grants.Repo
	Tokens   *token.Manager
}

type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	logger zerolog.Logger
	config config.Config

	auth     *auth.AuthorizationService
	registry *clients.Registry
	grants   grants.Repo
	tokens   *token.Manager
}

func New(cfg config.Config, logger zerolog.Logger, services Services) (*Server, error) {
	if services.Auth == nil {
		return nil, errors.New("[server.New] authorization service is required")
	}
	if services.Registry == nil {
		return nil, errors.New("[server.New] client registry is required")
	}
	if services.Grants == nil {
		return nil, errors.New("[server.New] grants repo is required")
	}
	if services.Tokens == nil {
		return nil, errors.New("[server.New] token manager is required")
	}

	s := &Server{
		env:      cfg.Env,
		mux:      http.NewServeMux(),
		logger:   logger,
		config:   cfg,
		auth:     services.Auth,
		registry: services.Registry,
		grants:   services.Grants,
		tokens:   services.Tokens,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
