package sqlite

import (
	"database/sql"

	"github.com/craterhub/authcore/clients"
	"github.com/craterhub/authcore/scopes"
	"github.com/pkg/errors"
)

var (
	_ clients.Repo           = clientStore{}
	_ clients.CascadeRemover = clientStore{}
)

// clientStore is the clients.Repo view over the shared database.
type clientStore struct {
	store *Store
}

// Clients returns the clients.Repo backed by this store.
func (s *Store) Clients() clients.Repo {
	return clientStore{store: s}
}

func (c clientStore) Upsert(client *clients.Client) error {
	tx, err := c.store.sqlDB.Begin()
	if err != nil {
		return errors.Wrap(err, "[clientStore.Upsert] begin")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
INSERT INTO oauth_clients (id, name, icon_url, max_scopes, secret_hash, created, created_by)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	icon_url = excluded.icon_url,
	max_scopes = excluded.max_scopes,
	secret_hash = excluded.secret_hash`,
		client.ID, client.Name, client.IconURL, int64(client.MaxScopes.Bits()),
		client.SecretHash, toMillis(client.Created), client.CreatedBy)
	if err != nil {
		return errors.Wrap(err, "[clientStore.Upsert] insert client")
	}

	// The client's URI set is replaced wholesale on upsert; incremental
	// changes go through AddRedirectURIs / RemoveRedirectURIs.
	if _, err := tx.Exec(`DELETE FROM oauth_client_redirect_uris WHERE client_id = ?`, client.ID); err != nil {
		return errors.Wrap(err, "[clientStore.Upsert] clear uris")
	}
	for _, uri := range client.RedirectURIs {
		if _, err := tx.Exec(`INSERT INTO oauth_client_redirect_uris (id, client_id, uri) VALUES (?, ?, ?)`,
			uri.ID, client.ID, uri.URI); err != nil {
			return errors.Wrap(err, "[clientStore.Upsert] insert uri")
		}
	}

	return errors.Wrap(tx.Commit(), "[clientStore.Upsert] commit")
}

func (c clientStore) Get(clientID string) (*clients.Client, error) {
	row := c.store.sqlDB.QueryRow(`
SELECT id, name, icon_url, max_scopes, secret_hash, created, created_by
FROM oauth_clients WHERE id = ?`, clientID)

	client, err := scanClient(row)
	if err != nil {
		return nil, err
	}
	if err := c.loadRedirectURIs(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (c clientStore) ListByOwner(userID string) ([]*clients.Client, error) {
	rows, err := c.store.sqlDB.Query(`
SELECT id, name, icon_url, max_scopes, secret_hash, created, created_by
FROM oauth_clients WHERE created_by = ? ORDER BY id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[clientStore.ListByOwner] query")
	}
	defer rows.Close()

	owned := make([]*clients.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		owned = append(owned, client)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[clientStore.ListByOwner] rows")
	}
	for _, client := range owned {
		if err := c.loadRedirectURIs(client); err != nil {
			return nil, err
		}
	}
	return owned, nil
}

func (c clientStore) Delete(clientID string) error {
	_, err := c.store.sqlDB.Exec(`DELETE FROM oauth_clients WHERE id = ?`, clientID)
	return errors.Wrap(err, "[clientStore.Delete]")
}

// RemoveClientCascade deletes a client, its redirect URIs, and every grant
// referencing it in one transaction, so a concurrent exchange never observes
// a half-removed client.
func (c clientStore) RemoveClientCascade(clientID string) error {
	tx, err := c.store.sqlDB.Begin()
	if err != nil {
		return errors.Wrap(err, "[clientStore.RemoveClientCascade] begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM oauth_client_authorizations WHERE client_id = ?`, clientID); err != nil {
		return errors.Wrap(err, "[clientStore.RemoveClientCascade] grants")
	}
	if _, err := tx.Exec(`DELETE FROM oauth_client_redirect_uris WHERE client_id = ?`, clientID); err != nil {
		return errors.Wrap(err, "[clientStore.RemoveClientCascade] uris")
	}
	if _, err := tx.Exec(`DELETE FROM oauth_clients WHERE id = ?`, clientID); err != nil {
		return errors.Wrap(err, "[clientStore.RemoveClientCascade] client")
	}

	return errors.Wrap(tx.Commit(), "[clientStore.RemoveClientCascade] commit")
}

func (c clientStore) AddRedirectURIs(clientID string, uris []clients.RedirectURI) error {
	tx, err := c.store.sqlDB.Begin()
	if err != nil {
		return errors.Wrap(err, "[clientStore.AddRedirectURIs] begin")
	}
	defer func() { _ = tx.Rollback() }()

	for _, uri := range uris {
		if _, err := tx.Exec(`
INSERT INTO oauth_client_redirect_uris (id, client_id, uri) VALUES (?, ?, ?)
ON CONFLICT(client_id, uri) DO NOTHING`, uri.ID, clientID, uri.URI); err != nil {
			return errors.Wrap(err, "[clientStore.AddRedirectURIs] insert")
		}
	}
	return errors.Wrap(tx.Commit(), "[clientStore.AddRedirectURIs] commit")
}

func (c clientStore) RemoveRedirectURIs(clientID string, uriIDs []string) error {
	tx, err := c.store.sqlDB.Begin()
	if err != nil {
		return errors.Wrap(err, "[clientStore.RemoveRedirectURIs] begin")
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range uriIDs {
		if _, err := tx.Exec(`DELETE FROM oauth_client_redirect_uris WHERE client_id = ? AND id = ?`,
			clientID, id); err != nil {
			return errors.Wrap(err, "[clientStore.RemoveRedirectURIs] delete")
		}
	}
	return errors.Wrap(tx.Commit(), "[clientStore.RemoveRedirectURIs] commit")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*clients.Client, error) {
	var (
		client    clients.Client
		maxScopes int64
		created   int64
	)
	err := row.Scan(&client.ID, &client.Name, &client.IconURL, &maxScopes,
		&client.SecretHash, &created, &client.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, clients.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scanClient")
	}
	client.MaxScopes = scopes.FromBits(uint64(maxScopes))
	client.Created = fromMillis(created)
	return &client, nil
}

func (c clientStore) loadRedirectURIs(client *clients.Client) error {
	rows, err := c.store.sqlDB.Query(`
SELECT id, client_id, uri FROM oauth_client_redirect_uris WHERE client_id = ? ORDER BY id`, client.ID)
	if err != nil {
		return errors.Wrap(err, "loadRedirectURIs query")
	}
	defer rows.Close()

	for rows.Next() {
		var uri clients.RedirectURI
		if err := rows.Scan(&uri.ID, &uri.ClientID, &uri.URI); err != nil {
			return errors.Wrap(err, "loadRedirectURIs scan")
		}
		client.RedirectURIs = append(client.RedirectURIs, uri)
	}
	return errors.Wrap(rows.Err(), "loadRedirectURIs rows")
}
