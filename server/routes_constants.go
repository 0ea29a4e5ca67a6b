package server

const (
	RouteOAuthAuthorize = "/oauth/authorize"
	RouteOAuthAccept    = "/oauth/accept"
	RouteOAuthReject    = "/oauth/reject"
	RouteOAuthToken     = "/oauth/token"

	RouteClients         = "/clients"
	RouteClientByID      = "/clients/{id}"
	RouteClientRedirects = "/clients/{id}/redirects"

	RouteUserAuthorizations = "/user/authorizations"
)
