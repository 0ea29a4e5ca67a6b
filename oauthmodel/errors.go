package oauthmodel

// OAuth2 wire error codes (RFC 6749 §4.1.2.1 and §5.2). Authorization
// failures map onto these generic codes so callers cannot distinguish why a
// request was refused.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeServerError          = "server_error"
)
