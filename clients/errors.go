package clients

import "errors"

var (
	// ErrValidation covers malformed registration input such as a missing or
	// non-absolute redirect URI. Rejected at the boundary, never partially
	// applied.
	ErrValidation = errors.New("invalid client input")
	// ErrNotFound indicates no client exists under the given ID.
	ErrNotFound = errors.New("client not found")
	// ErrNotOwner indicates the acting user does not own the client.
	ErrNotOwner = errors.New("not the client owner")
	// ErrScopeCeilingInUse indicates a max-scopes change would strand an
	// existing grant above the new ceiling. The ceiling may only move while
	// every grant stays within it.
	ErrScopeCeilingInUse = errors.New("max scopes are held by existing grants")
)
