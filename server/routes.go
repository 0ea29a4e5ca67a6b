package server

func (s *Server) initRoutes() {
	// OAuth2 authorization-code flow. The token endpoint authenticates the
	// client itself; everything else acts for a signed-in user.
	s.RegisterRouteHandler("GET "+RouteOAuthAuthorize, ChainMiddleware(s.Authorize(), s.UserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuthAccept, ChainMiddleware(s.Accept(), s.UserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuthReject, ChainMiddleware(s.Reject(), s.UserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuthToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))

	// Client management
	s.RegisterRouteHandler("POST "+RouteClients, ChainMiddleware(s.CreateClient(), s.UserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClients, ChainMiddleware(s.ListClients(), s.UserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClientByID, ChainMiddleware(s.GetClient(), s.UserMiddleware()...))
	s.RegisterRouteHandler("PATCH "+RouteClientByID, ChainMiddleware(s.UpdateClient(), s.UserMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteClientByID, ChainMiddleware(s.DeleteClient(), s.UserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientRedirects, ChainMiddleware(s.AddClientRedirects(), s.UserMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteClientRedirects, ChainMiddleware(s.RemoveClientRedirects(), s.UserMiddleware()...))

	// Grant management for the signed-in user
	s.RegisterRouteHandler("GET "+RouteUserAuthorizations, ChainMiddleware(s.ListAuthorizations(), s.UserMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteUserAuthorizations, ChainMiddleware(s.RevokeAuthorization(), s.UserMiddleware()...))
}
