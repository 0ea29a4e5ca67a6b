package oauthmodel

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the form body sent to the /oauth/token endpoint.
type TokenRequest struct {
	// GrantType selects the exchange mechanism.
	// Required: Yes. Only "authorization_code" is supported.
	GrantType string

	// Code is the single-use authorization code received on flow acceptance.
	// Required: Yes
	// Usage: Exchanged once for a token, then becomes invalid
	Code string

	// RedirectURI, when present, must equal the URI captured when the flow
	// began.
	// Required: No
	RedirectURI string

	// ClientID identifies the OAuth2 client making the request.
	// Required: Yes
	ClientID string

	// ClientSecret is the secret credential issued at registration. It is
	// presented as a bearer credential on the token endpoint.
	// Required: Yes
	// Security: Never log or expose this value
	ClientSecret string
}

const GrantTypeAuthorizationCode = "authorization_code"
