package token

import (
	"time"

	"github.com/craterhub/authcore/scopes"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultAccessTokenExpiry = 1 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Introspection represents the metadata of an access token. If Active is
// false the other fields are not populated.
type Introspection struct {
	Active   bool          `json:"active"`
	Sub      string        `json:"sub,omitempty"`       // user ID the token acts for
	ClientID string        `json:"client_id,omitempty"` // client the token was issued to
	Scopes   scopes.Scopes `json:"-"`
	Scope    string        `json:"scope,omitempty"`
	Exp      int64         `json:"exp,omitempty"`
	Iat      int64         `json:"iat,omitempty"`
	Iss      string        `json:"iss,omitempty"`
}

// accessClaims is the JWT claim set for minted bearer tokens. Scope bits are
// carried numerically so unknown flags survive the round trip.
type accessClaims struct {
	jwt.RegisteredClaims
	ClientID  string `json:"client_id,omitempty"`
	ScopeBits uint64 `json:"scp"`
}

// Manager mints and verifies bearer access tokens.
type Manager struct {
	signingKey        []byte
	issuer            string
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// New creates a Manager signing HS256 tokens with the given key.
func New(signingKey []byte, issuer string, options ...ManagerOption) (*Manager, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("[token.New] signing key is required")
	}
	if issuer == "" {
		return nil, errors.New("[token.New] issuer is required")
	}
	m := &Manager{
		signingKey:        signingKey,
		issuer:            issuer,
		accessTokenExpiry: defaultAccessTokenExpiry,
		nowFunc:           time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// GenerateAccessToken mints a bearer token for a user acting through a
// client, carrying the granted scope set. Returns the signed token and its
// lifetime in seconds.
func (m *Manager) GenerateAccessToken(userID, clientID string, granted scopes.Scopes) (string, int, error) {
	now := m.nowFunc()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.New().String(),
		},
		ClientID:  clientID,
		ScopeBits: granted.Bits(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", 0, errors.Wrap(err, "[Manager.GenerateAccessToken] SignedString")
	}
	return signed, int(m.accessTokenExpiry.Seconds()), nil
}

// Introspect validates a raw token and returns its metadata. Malformed,
// mis-signed, and expired tokens all come back with Active=false rather than
// an error, so callers cannot distinguish the failure modes.
func (m *Manager) Introspect(raw string) (*Introspection, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Wrapf(ErrInvalidToken, "unexpected signing method %q", t.Method.Alg())
		}
		return m.signingKey, nil
	}, jwt.WithTimeFunc(m.nowFunc), jwt.WithIssuer(m.issuer))
	if err != nil || !parsed.Valid {
		return &Introspection{Active: false}, nil
	}

	granted := scopes.FromBits(claims.ScopeBits)
	intro := &Introspection{
		Active:   true,
		Sub:      claims.Subject,
		ClientID: claims.ClientID,
		Scopes:   granted,
		Scope:    granted.String(),
		Iss:      claims.Issuer,
	}
	if claims.IssuedAt != nil {
		intro.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		intro.Exp = claims.ExpiresAt.Unix()
	}
	return intro, nil
}
