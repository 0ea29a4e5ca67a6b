package sqlite

import (
	"database/sql"

	"github.com/craterhub/authcore/projects"
	"github.com/pkg/errors"
)

var _ projects.Repo = projectStore{}

// projectStore is the projects.Repo view over the shared database.
type projectStore struct {
	store *Store
}

// Projects returns the projects.Repo backed by this store.
func (s *Store) Projects() projects.Repo {
	return projectStore{store: s}
}

func (p projectStore) UpsertProject(project *projects.Project) error {
	_, err := p.store.sqlDB.Exec(`
INSERT INTO projects (id, team_id, organization_id) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET team_id = excluded.team_id, organization_id = excluded.organization_id`,
		project.ID, project.TeamID, project.OrganizationID)
	return errors.Wrap(err, "[projectStore.UpsertProject]")
}

func (p projectStore) GetProject(projectID string) (*projects.Project, error) {
	var project projects.Project
	err := p.store.sqlDB.QueryRow(`
SELECT id, team_id, organization_id FROM projects WHERE id = ?`, projectID).
		Scan(&project.ID, &project.TeamID, &project.OrganizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, projects.ErrProjectNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[projectStore.GetProject]")
	}
	return &project, nil
}

func (p projectStore) UpsertOrganization(org *projects.Organization) error {
	_, err := p.store.sqlDB.Exec(`
INSERT INTO organizations (id, team_id) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET team_id = excluded.team_id`,
		org.ID, org.TeamID)
	return errors.Wrap(err, "[projectStore.UpsertOrganization]")
}

func (p projectStore) GetOrganization(orgID string) (*projects.Organization, error) {
	var org projects.Organization
	err := p.store.sqlDB.QueryRow(`
SELECT id, team_id FROM organizations WHERE id = ?`, orgID).
		Scan(&org.ID, &org.TeamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, projects.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[projectStore.GetOrganization]")
	}
	return &org, nil
}
