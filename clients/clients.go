package clients

import (
	"net/url"
	"time"

	"github.com/craterhub/authcore/scopes"
	"golang.org/x/crypto/bcrypt"
)

// Client is a registered OAuth application. Its MaxScopes is the ceiling no
// authorization flow or grant may exceed; requests above it are narrowed,
// never rejected.
type Client struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	IconURL      string        `json:"icon_url,omitempty"`
	MaxScopes    scopes.Scopes `json:"max_scopes"`
	SecretHash   string        `json:"-"` // bcrypt hash, never serialized
	Created      time.Time     `json:"created"`
	CreatedBy    string        `json:"created_by"` // owning user ID
	RedirectURIs []RedirectURI `json:"redirect_uris"`
}

// RedirectURI is one registered redirect target of a client. Flow validation
// matches it by exact string equality.
type RedirectURI struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	URI      string `json:"uri"`
}

// HasRedirectURI reports whether uri exactly matches a registered URI.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, r := range c.RedirectURIs {
		if r.URI == uri {
			return true
		}
	}
	return false
}

// HashSecret hashes a freshly generated client secret for storage.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifySecret compares a presented secret against the stored hash.
func VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// validateRedirectURI rejects anything that is not a well-formed absolute URI.
func validateRedirectURI(uri string) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return err
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return ErrValidation
	}
	return nil
}
