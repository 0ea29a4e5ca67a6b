package oauthmodel

// AuthorizationParameters holds parameters for the OAuth2 authorization
// request, received as query parameters at the /oauth/authorize endpoint.
type AuthorizationParameters struct {
	// ClientID identifies the application requesting authorization.
	// Required: Yes
	ClientID string

	// Scope is the space-separated list of scope names being requested. It
	// is narrowed to the client's registered ceiling, never rejected for
	// being too broad.
	// Required: No (empty means no scopes)
	Scope string

	// RedirectURI is where the authorization response will be sent. When
	// omitted, the client's sole registered URI is used; it is an error for
	// a client with several URIs.
	// Security: Must exactly match a pre-registered URI to prevent open
	// redirects.
	RedirectURI string

	// State is an opaque value echoed back to the client in the redirect,
	// typically used for CSRF protection.
	// Required: No
	State string
}

// AccessRequest is the authorization endpoint's response body: everything a
// caller needs to render the consent prompt and respond to the flow.
type AccessRequest struct {
	FlowID          string `json:"flow_id"`
	ClientID        string `json:"client_id"`
	ClientName      string `json:"client_name"`
	ClientIconURL   string `json:"client_icon_url,omitempty"`
	RequestedScopes string `json:"requested_scopes"`
}

// ErrorResponse is the standard OAuth2 error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
