package projects

import "errors"

// Project is the minimal project record the authorization core needs: its
// own team, and optionally the organization it belongs to.
type Project struct {
	ID             string `json:"id"`
	TeamID         string `json:"team_id"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// Organization holds an organization and its team.
type Organization struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
}

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrOrganizationNotFound = errors.New("organization not found")
)

// Repo is the persistence boundary for projects and organizations. The
// authorization core only ever performs point lookups.
type Repo interface {
	UpsertProject(project *Project) error
	GetProject(projectID string) (*Project, error)
	UpsertOrganization(org *Organization) error
	GetOrganization(orgID string) (*Organization, error)
}
