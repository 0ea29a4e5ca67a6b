package auth

import (
	"time"

	"github.com/craterhub/authcore/scopes"
)

// FlowStatus tracks where a flow is in the authorize → accept/reject →
// exchange protocol. Rejected and Exchanged are terminal; expiry can end a
// flow from any state.
type FlowStatus string

const (
	FlowCreated   FlowStatus = "created"
	FlowAccepted  FlowStatus = "accepted"
	FlowExchanged FlowStatus = "exchanged"
)

// Flow is the ephemeral state of one authorization flow. It lives in the TTL
// flow store, never in permanent storage. The ID is cryptographically random
// and serves as the flow's only handle.
type Flow struct {
	ID          string
	ClientID    string
	UserID      string        // the user who began the flow; only they may respond
	Scopes      scopes.Scopes // already clamped to the client's max scopes
	RedirectURI string        // captured by value at Begin
	State       string        // opaque echo value
	Code        string        // single-use authorization code, set on accept
	Status      FlowStatus
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the flow is past its TTL at the given instant.
func (f *Flow) Expired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}
