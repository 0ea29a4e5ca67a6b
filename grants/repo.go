package grants

import "errors"

// ErrNotFound indicates no grant exists for the requested pair.
var ErrNotFound = errors.New("grant not found")

// Repo is the persistence boundary for grants. Upsert must union scopes with
// any existing (client, user) row rather than replacing them, preserving the
// original creation time.
type Repo interface {
	Upsert(auth *Authorization) error
	GetForClientUser(clientID, userID string) (*Authorization, error)
	ListForUser(userID string) ([]*Authorization, error)
	ListForClient(clientID string) ([]*Authorization, error)
	Delete(clientID, userID string) error
	DeleteForClient(clientID string) error
}
