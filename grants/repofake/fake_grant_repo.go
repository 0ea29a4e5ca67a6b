package fakegrantrepo

import (
	"sort"
	"sync"

	"github.com/craterhub/authcore/grants"
)

var _ grants.Repo = (*FakeGrantRepo)(nil)

// FakeGrantRepo is a thread-safe in-memory grants.Repo for tests and
// development. Keys are (client, user) pairs.
type FakeGrantRepo struct {
	byPair map[pairKey]*grants.Authorization
	lock   sync.RWMutex
}

type pairKey struct {
	clientID string
	userID   string
}

func NewFakeGrantRepo() *FakeGrantRepo {
	return &FakeGrantRepo{
		byPair: make(map[pairKey]*grants.Authorization),
	}
}

func (r *FakeGrantRepo) Upsert(auth *grants.Authorization) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := pairKey{auth.ClientID, auth.UserID}
	if existing, ok := r.byPair[key]; ok {
		// Union-only: scopes accumulate, the first grant's creation time and
		// ID stay.
		existing.Scopes = existing.Scopes.Union(auth.Scopes)
		return nil
	}
	clone := *auth
	r.byPair[key] = &clone
	return nil
}

func (r *FakeGrantRepo) GetForClientUser(clientID, userID string) (*grants.Authorization, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	auth, ok := r.byPair[pairKey{clientID, userID}]
	if !ok {
		return nil, grants.ErrNotFound
	}
	clone := *auth
	return &clone, nil
}

func (r *FakeGrantRepo) ListForUser(userID string) ([]*grants.Authorization, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*grants.Authorization, 0)
	for key, auth := range r.byPair {
		if key.userID == userID {
			clone := *auth
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ClientID < list[j].ClientID
	})
	return list, nil
}

func (r *FakeGrantRepo) ListForClient(clientID string) ([]*grants.Authorization, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*grants.Authorization, 0)
	for key, auth := range r.byPair {
		if key.clientID == clientID {
			clone := *auth
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UserID < list[j].UserID
	})
	return list, nil
}

func (r *FakeGrantRepo) Delete(clientID, userID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.byPair, pairKey{clientID, userID})
	return nil
}

func (r *FakeGrantRepo) DeleteForClient(clientID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for key := range r.byPair {
		if key.clientID == clientID {
			delete(r.byPair, key)
		}
	}
	return nil
}
