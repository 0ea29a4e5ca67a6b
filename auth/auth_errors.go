package auth

import "errors"

var (
	// ErrUnknownClient indicates the authorization request named a client
	// that does not exist.
	ErrUnknownClient = errors.New("unknown client")
	// ErrRedirectMismatch indicates the supplied redirect URI is not
	// registered for the client, or none was supplied and the client has
	// more than one registered URI.
	ErrRedirectMismatch = errors.New("redirect uri mismatch")
	// ErrFlowNotFound covers absent, expired, and already-settled flows
	// indistinguishably, so callers cannot probe for a flow's existence.
	ErrFlowNotFound = errors.New("flow not found")
	// ErrFlowOwnerMismatch indicates the responding user is not the one who
	// began the flow.
	ErrFlowOwnerMismatch = errors.New("flow owner mismatch")
	// ErrUnsupportedGrantType indicates a grant type other than
	// authorization_code on the token endpoint.
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	// ErrInvalidClient covers an unknown client ID and a wrong secret with
	// the same error, to avoid an oracle on client existence.
	ErrInvalidClient = errors.New("invalid client")
	// ErrInvalidGrant covers a wrong, reused, expired, or mismatched
	// authorization code.
	ErrInvalidGrant = errors.New("invalid grant")
)
