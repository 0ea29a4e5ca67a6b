package grants

import (
	"time"

	"github.com/craterhub/authcore/scopes"
)

// Authorization is the cumulative record of scopes a user has approved for a
// client. There is at most one per (client, user) pair; repeated
// authorization flows union new scopes into it and never shrink it. Created
// keeps the time of the first grant.
type Authorization struct {
	ID       string        `json:"id"`
	ClientID string        `json:"client_id"`
	UserID   string        `json:"user_id"`
	Scopes   scopes.Scopes `json:"scopes"`
	Created  time.Time     `json:"created"`
}
