package teams

import (
	"errors"

	"github.com/craterhub/authcore/permissions"
)

// OwnerKind identifies what a team belongs to. A team is owned by exactly one
// project or one organization, never both.
type OwnerKind string

const (
	OwnerProject      OwnerKind = "project"
	OwnerOrganization OwnerKind = "organization"
)

// Team is the membership container of a project or organization.
type Team struct {
	ID        string    `json:"id"`
	OwnerKind OwnerKind `json:"owner_kind"`
	OwnerID   string    `json:"owner_id"`
}

// Member links a user to a team. Exactly one of the permission fields is
// meaningful, matching the team's owner kind; a user has at most one row per
// team.
type Member struct {
	TeamID         string                              `json:"team_id"`
	UserID         string                              `json:"user_id"`
	Permissions    permissions.ProjectPermissions      `json:"permissions"`
	OrgPermissions permissions.OrganizationPermissions `json:"organization_permissions"`
	Accepted       bool                                `json:"accepted"`
	Role           string                              `json:"role,omitempty"`
}

// ErrNotFound indicates no membership row exists for the lookup.
var ErrNotFound = errors.New("team member not found")

// Repo is the persistence boundary for teams and their members.
type Repo interface {
	UpsertTeam(team *Team) error
	GetTeam(teamID string) (*Team, error)
	UpsertMember(member *Member) error
	GetMember(teamID, userID string) (*Member, error)
	RemoveMember(teamID, userID string) error
	ListMembers(teamID string) ([]*Member, error)
}
