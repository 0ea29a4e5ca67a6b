package clients

// Repo is the persistence boundary for clients and their redirect URIs.
// Implementations must return ErrNotFound for missing IDs and must delete a
// client's redirect URIs together with the client.
type Repo interface {
	Upsert(client *Client) error
	Get(clientID string) (*Client, error)
	ListByOwner(userID string) ([]*Client, error)
	Delete(clientID string) error
	AddRedirectURIs(clientID string, uris []RedirectURI) error
	RemoveRedirectURIs(clientID string, uriIDs []string) error
}

// CascadeRemover is implemented by stores that can delete a client, its
// redirect URIs, and every grant referencing it in a single transaction.
// The registry prefers it over the two-step fallback so that a concurrent
// token exchange never observes a half-removed client.
type CascadeRemover interface {
	RemoveClientCascade(clientID string) error
}
