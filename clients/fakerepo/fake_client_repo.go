package fakeclientrepo

import (
	"sort"
	"sync"

	"github.com/craterhub/authcore/clients"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

// FakeClientRepo is a thread-safe in-memory clients.Repo for tests and
// development.
type FakeClientRepo struct {
	clients map[string]*clients.Client
	lock    sync.RWMutex
}

func NewFakeClientRepo() *FakeClientRepo {
	return &FakeClientRepo{
		clients: make(map[string]*clients.Client),
	}
}

func (r *FakeClientRepo) Upsert(client *clients.Client) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.clients[client.ID] = copyClient(client)
	return nil
}

func (r *FakeClientRepo) Get(clientID string) (*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	client, ok := r.clients[clientID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	return copyClient(client), nil
}

func (r *FakeClientRepo) ListByOwner(userID string) ([]*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	owned := make([]*clients.Client, 0)
	for _, c := range r.clients {
		if c.CreatedBy == userID {
			owned = append(owned, copyClient(c))
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].ID < owned[j].ID
	})
	return owned, nil
}

func (r *FakeClientRepo) Delete(clientID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.clients, clientID)
	return nil
}

func (r *FakeClientRepo) AddRedirectURIs(clientID string, uris []clients.RedirectURI) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	client, ok := r.clients[clientID]
	if !ok {
		return clients.ErrNotFound
	}
	client.RedirectURIs = append(client.RedirectURIs, uris...)
	return nil
}

func (r *FakeClientRepo) RemoveRedirectURIs(clientID string, uriIDs []string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	client, ok := r.clients[clientID]
	if !ok {
		return clients.ErrNotFound
	}
	remove := make(map[string]bool, len(uriIDs))
	for _, id := range uriIDs {
		remove[id] = true
	}
	kept := client.RedirectURIs[:0]
	for _, uri := range client.RedirectURIs {
		if !remove[uri.ID] {
			kept = append(kept, uri)
		}
	}
	client.RedirectURIs = kept
	return nil
}

// copyClient prevents external modifications to stored state.
func copyClient(c *clients.Client) *clients.Client {
	clone := *c
	clone.RedirectURIs = append([]clients.RedirectURI(nil), c.RedirectURIs...)
	return &clone
}
