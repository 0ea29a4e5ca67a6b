package sqlite

import (
	"database/sql"

	"github.com/craterhub/authcore/grants"
	"github.com/craterhub/authcore/scopes"
	"github.com/pkg/errors"
)

var _ grants.Repo = grantStore{}

// grantStore is the grants.Repo view over the shared database.
type grantStore struct {
	store *Store
}

// Grants returns the grants.Repo backed by this store.
func (s *Store) Grants() grants.Repo {
	return grantStore{store: s}
}

// Upsert unions the grant's scopes into any existing (client, user) row;
// scopes never shrink and the first grant's id and creation time are kept.
func (g grantStore) Upsert(auth *grants.Authorization) error {
	_, err := g.store.sqlDB.Exec(`
INSERT INTO oauth_client_authorizations (id, client_id, user_id, scopes, created)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(client_id, user_id) DO UPDATE SET
	scopes = oauth_client_authorizations.scopes | excluded.scopes`,
		auth.ID, auth.ClientID, auth.UserID, int64(auth.Scopes.Bits()), toMillis(auth.Created))
	return errors.Wrap(err, "[grantStore.Upsert]")
}

func (g grantStore) GetForClientUser(clientID, userID string) (*grants.Authorization, error) {
	row := g.store.sqlDB.QueryRow(`
SELECT id, client_id, user_id, scopes, created
FROM oauth_client_authorizations WHERE client_id = ? AND user_id = ?`, clientID, userID)
	return scanGrant(row)
}

func (g grantStore) ListForUser(userID string) ([]*grants.Authorization, error) {
	rows, err := g.store.sqlDB.Query(`
SELECT id, client_id, user_id, scopes, created
FROM oauth_client_authorizations WHERE user_id = ? ORDER BY client_id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[grantStore.ListForUser] query")
	}
	defer rows.Close()

	list := make([]*grants.Authorization, 0)
	for rows.Next() {
		auth, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, auth)
	}
	return list, errors.Wrap(rows.Err(), "[grantStore.ListForUser] rows")
}

func (g grantStore) ListForClient(clientID string) ([]*grants.Authorization, error) {
	rows, err := g.store.sqlDB.Query(`
SELECT id, client_id, user_id, scopes, created
FROM oauth_client_authorizations WHERE client_id = ? ORDER BY user_id`, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[grantStore.ListForClient] query")
	}
	defer rows.Close()

	list := make([]*grants.Authorization, 0)
	for rows.Next() {
		auth, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, auth)
	}
	return list, errors.Wrap(rows.Err(), "[grantStore.ListForClient] rows")
}

func (g grantStore) Delete(clientID, userID string) error {
	_, err := g.store.sqlDB.Exec(`
DELETE FROM oauth_client_authorizations WHERE client_id = ? AND user_id = ?`, clientID, userID)
	return errors.Wrap(err, "[grantStore.Delete]")
}

func (g grantStore) DeleteForClient(clientID string) error {
	_, err := g.store.sqlDB.Exec(`
DELETE FROM oauth_client_authorizations WHERE client_id = ?`, clientID)
	return errors.Wrap(err, "[grantStore.DeleteForClient]")
}

func scanGrant(row rowScanner) (*grants.Authorization, error) {
	var (
		auth      grants.Authorization
		scopeBits int64
		created   int64
	)
	err := row.Scan(&auth.ID, &auth.ClientID, &auth.UserID, &scopeBits, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, grants.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scanGrant")
	}
	auth.Scopes = scopes.FromBits(uint64(scopeBits))
	auth.Created = fromMillis(created)
	return &auth, nil
}
