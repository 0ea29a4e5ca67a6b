package teams

import (
	"github.com/craterhub/authcore/permissions"
	"github.com/craterhub/authcore/projects"
	"github.com/pkg/errors"
)

// Resolver computes a user's effective permissions on a project or
// organization from overlapping team memberships. It is read-only and safe
// for concurrent use.
//
// Precedence is strictly "most specific row wins, full replacement": a row on
// the project's own team is authoritative even when it grants less than the
// organization row would.
type Resolver struct {
	teams    Repo
	projects projects.Repo
}

// NewResolver initializes a Resolver with its repositories.
func NewResolver(teamsRepo Repo, projectsRepo projects.Repo) (*Resolver, error) {
	if teamsRepo == nil {
		return nil, errors.New("[NewResolver] teams repo is required")
	}
	if projectsRepo == nil {
		return nil, errors.New("[NewResolver] projects repo is required")
	}
	return &Resolver{teams: teamsRepo, projects: projectsRepo}, nil
}

// EffectiveProjectPermissions returns the user's permission set on a project:
// the project-team row exactly if one exists, else the organization row
// projected into project terms, else the empty set.
func (r *Resolver) EffectiveProjectPermissions(userID, projectID string) (permissions.ProjectPermissions, error) {
	project, err := r.projects.GetProject(projectID)
	if err != nil {
		return 0, errors.Wrap(err, "[Resolver.EffectiveProjectPermissions] GetProject")
	}

	member, err := r.teams.GetMember(project.TeamID, userID)
	switch {
	case err == nil:
		return member.Permissions, nil
	case !errors.Is(err, ErrNotFound):
		return 0, errors.Wrap(err, "[Resolver.EffectiveProjectPermissions] GetMember")
	}

	if project.OrganizationID == "" {
		return 0, nil
	}

	org, err := r.projects.GetOrganization(project.OrganizationID)
	if err != nil {
		return 0, errors.Wrap(err, "[Resolver.EffectiveProjectPermissions] GetOrganization")
	}
	orgMember, err := r.teams.GetMember(org.TeamID, userID)
	switch {
	case err == nil:
		return orgMember.OrgPermissions.ProjectDefaults(), nil
	case errors.Is(err, ErrNotFound):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "[Resolver.EffectiveProjectPermissions] GetMember org team")
	}
}

// EffectiveOrganizationPermissions returns the user's permission set on an
// organization: its team row if present, else the empty set.
func (r *Resolver) EffectiveOrganizationPermissions(userID, orgID string) (permissions.OrganizationPermissions, error) {
	org, err := r.projects.GetOrganization(orgID)
	if err != nil {
		return 0, errors.Wrap(err, "[Resolver.EffectiveOrganizationPermissions] GetOrganization")
	}

	member, err := r.teams.GetMember(org.TeamID, userID)
	switch {
	case err == nil:
		return member.OrgPermissions, nil
	case errors.Is(err, ErrNotFound):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "[Resolver.EffectiveOrganizationPermissions] GetMember")
	}
}
