package oauth2

// TokenResponse represents the response from an OAuth2 token request, the
// standard token endpoint format defined in RFC 6749. Returned from the
// /oauth/token endpoint.
type TokenResponse struct {
	// AccessToken is the bearer token used to access protected resources.
	// Usage: Include in the Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token (always "Bearer").
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in"`

	// Scope indicates the token's granted permissions, as a space-separated
	// name list. It equals the narrowed scope agreed at authorization time.
	Scope string `json:"scope,omitempty"`
}

// TokenTypeBearer is the only token type this server issues.
const TokenTypeBearer = "Bearer"
