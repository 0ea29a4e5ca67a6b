package scopes

import (
	"strings"

	"github.com/pkg/errors"
)

// Scopes is a bitset of named OAuth capabilities. A client requests a set of
// scopes during authorization and may never be granted more than its
// registered ceiling. The zero value is the empty set.
type Scopes uint64

const (
	// ProjectRead allows reading project metadata, including hidden projects
	// the user has access to.
	ProjectRead Scopes = 1 << iota
	// ProjectWrite allows modifying project metadata.
	ProjectWrite
	// ProjectCreate allows creating new projects on the user's behalf.
	ProjectCreate
	// ProjectDelete allows deleting projects.
	ProjectDelete
	// VersionRead allows reading version listings and files.
	VersionRead
	// VersionWrite allows modifying version metadata.
	VersionWrite
	// VersionCreate allows uploading new versions.
	VersionCreate
	// VersionDelete allows deleting versions.
	VersionDelete
	// UserRead allows reading the user's public profile.
	UserRead
	// UserReadEmail allows reading the user's email address.
	UserReadEmail
	// UserWrite allows modifying the user's profile.
	UserWrite
	// NotificationRead allows reading the user's notifications.
	NotificationRead
	// NotificationWrite allows acting on the user's notifications.
	NotificationWrite
	// OrganizationRead allows reading organization membership.
	OrganizationRead
	// OrganizationWrite allows modifying organizations.
	OrganizationWrite
	// CollectionRead allows reading the user's collections.
	CollectionRead
	// CollectionWrite allows modifying the user's collections.
	CollectionWrite
)

// None is the empty scope set.
const None Scopes = 0

var scopeNames = map[Scopes]string{
	ProjectRead:       "read-project",
	ProjectWrite:      "write-project",
	ProjectCreate:     "create-project",
	ProjectDelete:     "delete-project",
	VersionRead:       "read-version",
	VersionWrite:      "write-version",
	VersionCreate:     "create-version",
	VersionDelete:     "delete-version",
	UserRead:          "read-user",
	UserReadEmail:     "read-user-email",
	UserWrite:         "write-user",
	NotificationRead:  "read-notification",
	NotificationWrite: "write-notification",
	OrganizationRead:  "read-organization",
	OrganizationWrite: "write-organization",
	CollectionRead:    "read-collection",
	CollectionWrite:   "write-collection",
}

var namedScopes = func() map[string]Scopes {
	m := make(map[string]Scopes, len(scopeNames))
	for bit, name := range scopeNames {
		m[name] = bit
	}
	return m
}()

// known is the union of all scope bits this build understands.
var known = func() Scopes {
	var all Scopes
	for bit := range scopeNames {
		all |= bit
	}
	return all
}()

var ErrUnknownScope = errors.New("unknown scope")

// Contains reports whether every bit of flag is present in the set.
func (s Scopes) Contains(flag Scopes) bool {
	return s&flag == flag
}

// Union returns the set containing every scope of s and other.
func (s Scopes) Union(other Scopes) Scopes {
	return s | other
}

// Intersect returns the scopes present in both sets. Used to clamp a
// requested set to a client's ceiling.
func (s Scopes) Intersect(other Scopes) Scopes {
	return s & other
}

// Difference returns the scopes of s that are not in other.
func (s Scopes) Difference(other Scopes) Scopes {
	return s &^ other
}

// IsSubsetOf reports whether every scope of s is present in other.
func (s Scopes) IsSubsetOf(other Scopes) bool {
	return s&other == s
}

// IsEmpty reports whether the set holds no scopes at all.
func (s Scopes) IsEmpty() bool {
	return s == 0
}

// Bits returns the raw wire/storage encoding. All bits round-trip through
// FromBits verbatim, including bits this build does not recognise, so a set
// written by a newer build is never silently narrowed on re-encode.
func (s Scopes) Bits() uint64 {
	return uint64(s)
}

// FromBits decodes the compact integer encoding produced by Bits.
func FromBits(bits uint64) Scopes {
	return Scopes(bits)
}

// Parse converts a space-separated list of scope names (the OAuth "scope"
// request parameter; "+" is accepted as a separator for query-string callers)
// into a set. Unknown names are rejected rather than ignored.
func Parse(raw string) (Scopes, error) {
	var s Scopes
	raw = strings.ReplaceAll(raw, "+", " ")
	for _, name := range strings.Fields(raw) {
		bit, ok := namedScopes[name]
		if !ok {
			return None, errors.Wrap(ErrUnknownScope, name)
		}
		s |= bit
	}
	return s, nil
}

// String renders the known scopes of the set as a space-separated name list,
// in bit order. Unknown bits carry no name and are omitted from display only;
// they remain present in the encoded value.
func (s Scopes) String() string {
	var names []string
	for bit := ProjectRead; bit != 0 && bit <= known; bit <<= 1 {
		if s.Contains(bit) {
			if name, ok := scopeNames[bit]; ok {
				names = append(names, name)
			}
		}
	}
	return strings.Join(names, " ")
}
