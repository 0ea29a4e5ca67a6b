package faketeamrepo

import (
	"sync"

	"github.com/craterhub/authcore/teams"
)

var _ teams.Repo = (*FakeTeamRepo)(nil)

// FakeTeamRepo is a thread-safe in-memory teams.Repo for tests and
// development.
type FakeTeamRepo struct {
	teams   map[string]*teams.Team
	members map[memberKey]*teams.Member
	lock    sync.RWMutex
}

type memberKey struct {
	teamID string
	userID string
}

func NewFakeTeamRepo() *FakeTeamRepo {
	return &FakeTeamRepo{
		teams:   make(map[string]*teams.Team),
		members: make(map[memberKey]*teams.Member),
	}
}

func (r *FakeTeamRepo) UpsertTeam(team *teams.Team) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	clone := *team
	r.teams[team.ID] = &clone
	return nil
}

func (r *FakeTeamRepo) GetTeam(teamID string) (*teams.Team, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	team, ok := r.teams[teamID]
	if !ok {
		return nil, teams.ErrNotFound
	}
	clone := *team
	return &clone, nil
}

func (r *FakeTeamRepo) UpsertMember(member *teams.Member) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	clone := *member
	r.members[memberKey{member.TeamID, member.UserID}] = &clone
	return nil
}

func (r *FakeTeamRepo) GetMember(teamID, userID string) (*teams.Member, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	member, ok := r.members[memberKey{teamID, userID}]
	if !ok {
		return nil, teams.ErrNotFound
	}
	clone := *member
	return &clone, nil
}

func (r *FakeTeamRepo) RemoveMember(teamID, userID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.members, memberKey{teamID, userID})
	return nil
}

func (r *FakeTeamRepo) ListMembers(teamID string) ([]*teams.Member, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := make([]*teams.Member, 0)
	for key, member := range r.members {
		if key.teamID == teamID {
			clone := *member
			list = append(list, &clone)
		}
	}
	return list, nil
}
