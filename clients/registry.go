package clients

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/craterhub/authcore/grants"
	"github.com/craterhub/authcore/scopes"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const secretLength = 32

// Registry owns OAuth client records and their redirect URIs. All mutations
// of client state go through it.
type Registry struct {
	repo    Repo
	grants  grants.Repo
	nowTime func() time.Time
}

// RegistryOption modifies a Registry instance.
type RegistryOption func(*Registry)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

// NewRegistry initializes a Registry with its repositories.
func NewRegistry(repo Repo, grantsRepo grants.Repo, options ...RegistryOption) (*Registry, error) {
	if repo == nil {
		return nil, errors.New("[NewRegistry] client repo is required")
	}
	if grantsRepo == nil {
		return nil, errors.New("[NewRegistry] grants repo is required")
	}
	registry := &Registry{
		repo:    repo,
		grants:  grantsRepo,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(registry)
	}
	return registry, nil
}

// Register creates a new client with a freshly generated ID and secret.
// The plaintext secret is returned exactly once; only its hash is stored.
// At least one well-formed absolute redirect URI is required.
func (r *Registry) Register(name, iconURL string, maxScopes scopes.Scopes, redirectURIs []string, owner string) (*Client, string, error) {
	if len(redirectURIs) == 0 {
		return nil, "", errors.Wrap(ErrValidation, "[Registry.Register] at least one redirect URI is required")
	}
	for _, uri := range redirectURIs {
		if err := validateRedirectURI(uri); err != nil {
			return nil, "", errors.Wrapf(ErrValidation, "[Registry.Register] redirect URI %q", uri)
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, "", errors.Wrap(err, "[Registry.Register] generateSecret")
	}
	secretHash, err := HashSecret(secret)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Registry.Register] HashSecret")
	}

	client := &Client{
		ID:         uuid.New().String(),
		Name:       name,
		IconURL:    iconURL,
		MaxScopes:  maxScopes,
		SecretHash: secretHash,
		Created:    r.nowTime().UTC(),
		CreatedBy:  owner,
	}
	for _, uri := range redirectURIs {
		client.RedirectURIs = append(client.RedirectURIs, RedirectURI{
			ID:       uuid.New().String(),
			ClientID: client.ID,
			URI:      uri,
		})
	}

	if err := r.repo.Upsert(client); err != nil {
		return nil, "", errors.Wrap(err, "[Registry.Register] repo.Upsert")
	}
	return client, secret, nil
}

// Get returns the client with the given ID.
func (r *Registry) Get(clientID string) (*Client, error) {
	return r.repo.Get(clientID)
}

// ListByOwner returns every client created by the given user.
func (r *Registry) ListByOwner(userID string) ([]*Client, error) {
	return r.repo.ListByOwner(userID)
}

// UpdateEditableFields updates name, icon URL, and max scopes. Nil arguments
// leave the current value in place. The secret and redirect URIs are never
// touched here. Only the owning user may update a client.
func (r *Registry) UpdateEditableFields(clientID, actor string, name, iconURL *string, maxScopes *scopes.Scopes) (*Client, error) {
	client, err := r.repo.Get(clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Registry.UpdateEditableFields] Get")
	}
	if client.CreatedBy != actor {
		return nil, ErrNotOwner
	}

	if name != nil {
		client.Name = *name
	}
	if iconURL != nil {
		client.IconURL = *iconURL
	}
	if maxScopes != nil && *maxScopes != client.MaxScopes {
		// The ceiling may only move while every existing grant stays within
		// it. A grant stranded above the ceiling would keep authorizing
		// scopes the client no longer declares.
		granted, err := r.grants.ListForClient(clientID)
		if err != nil {
			return nil, errors.Wrap(err, "[Registry.UpdateEditableFields] grants.ListForClient")
		}
		for _, grant := range granted {
			if !grant.Scopes.IsSubsetOf(*maxScopes) {
				return nil, errors.Wrapf(ErrScopeCeilingInUse,
					"[Registry.UpdateEditableFields] user %s holds scopes outside the new ceiling", grant.UserID)
			}
		}
		client.MaxScopes = *maxScopes
	}

	if err := r.repo.Upsert(client); err != nil {
		return nil, errors.Wrap(err, "[Registry.UpdateEditableFields] Upsert")
	}
	return client, nil
}

// Remove deletes a client and cascades to its redirect URIs and to every
// grant referencing it. A dangling grant must never outlive its client, so
// the cascade is part of this operation's contract, not an implicit
// foreign-key side effect.
func (r *Registry) Remove(clientID, actor string) error {
	client, err := r.repo.Get(clientID)
	if err != nil {
		return errors.Wrap(err, "[Registry.Remove] Get")
	}
	if client.CreatedBy != actor {
		return ErrNotOwner
	}

	if cascade, ok := r.repo.(CascadeRemover); ok {
		return errors.Wrap(cascade.RemoveClientCascade(clientID), "[Registry.Remove] RemoveClientCascade")
	}

	// Grants first: an exchange racing this removal either finds the client
	// already gone or completes against the still-complete record.
	if err := r.grants.DeleteForClient(clientID); err != nil {
		return errors.Wrap(err, "[Registry.Remove] grants.DeleteForClient")
	}
	if err := r.repo.Delete(clientID); err != nil {
		return errors.Wrap(err, "[Registry.Remove] repo.Delete")
	}
	return nil
}

// AddRedirectURIs registers additional redirect URIs on a client. Adding a
// URI that is already registered is a no-op.
func (r *Registry) AddRedirectURIs(clientID, actor string, uris []string) error {
	client, err := r.repo.Get(clientID)
	if err != nil {
		return errors.Wrap(err, "[Registry.AddRedirectURIs] Get")
	}
	if client.CreatedBy != actor {
		return ErrNotOwner
	}

	var toAdd []RedirectURI
	for _, uri := range uris {
		if err := validateRedirectURI(uri); err != nil {
			return errors.Wrapf(ErrValidation, "[Registry.AddRedirectURIs] redirect URI %q", uri)
		}
		if client.HasRedirectURI(uri) {
			continue
		}
		toAdd = append(toAdd, RedirectURI{
			ID:       uuid.New().String(),
			ClientID: clientID,
			URI:      uri,
		})
	}
	if len(toAdd) == 0 {
		return nil
	}
	return errors.Wrap(r.repo.AddRedirectURIs(clientID, toAdd), "[Registry.AddRedirectURIs] repo.AddRedirectURIs")
}

// RemoveRedirectURIs removes redirect URIs by ID. Unknown IDs are ignored.
// Flows already begun keep the URI they captured by value; removing it here
// does not invalidate them.
func (r *Registry) RemoveRedirectURIs(clientID, actor string, uriIDs []string) error {
	client, err := r.repo.Get(clientID)
	if err != nil {
		return errors.Wrap(err, "[Registry.RemoveRedirectURIs] Get")
	}
	if client.CreatedBy != actor {
		return ErrNotOwner
	}
	return errors.Wrap(r.repo.RemoveRedirectURIs(clientID, uriIDs), "[Registry.RemoveRedirectURIs] repo.RemoveRedirectURIs")
}

func generateSecret() (string, error) {
	bytes := make([]byte, secretLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}
