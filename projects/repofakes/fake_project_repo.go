package fakeprojectrepo

import (
	"sync"

	"github.com/craterhub/authcore/projects"
)

var _ projects.Repo = (*FakeProjectRepo)(nil)

// FakeProjectRepo is a thread-safe in-memory projects.Repo for tests and
// development.
type FakeProjectRepo struct {
	projects map[string]*projects.Project
	orgs     map[string]*projects.Organization
	lock     sync.RWMutex
}

func NewFakeProjectRepo() *FakeProjectRepo {
	return &FakeProjectRepo{
		projects: make(map[string]*projects.Project),
		orgs:     make(map[string]*projects.Organization),
	}
}

func (r *FakeProjectRepo) UpsertProject(project *projects.Project) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	clone := *project
	r.projects[project.ID] = &clone
	return nil
}

func (r *FakeProjectRepo) GetProject(projectID string) (*projects.Project, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	project, ok := r.projects[projectID]
	if !ok {
		return nil, projects.ErrProjectNotFound
	}
	clone := *project
	return &clone, nil
}

func (r *FakeProjectRepo) UpsertOrganization(org *projects.Organization) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	clone := *org
	r.orgs[org.ID] = &clone
	return nil
}

func (r *FakeProjectRepo) GetOrganization(orgID string) (*projects.Organization, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	org, ok := r.orgs[orgID]
	if !ok {
		return nil, projects.ErrOrganizationNotFound
	}
	clone := *org
	return &clone, nil
}
