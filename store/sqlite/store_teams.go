package sqlite

import (
	"database/sql"

	"github.com/craterhub/authcore/permissions"
	"github.com/craterhub/authcore/teams"
	"github.com/pkg/errors"
)

var _ teams.Repo = teamStore{}

// teamStore is the teams.Repo view over the shared database.
type teamStore struct {
	store *Store
}

// Teams returns the teams.Repo backed by this store.
func (s *Store) Teams() teams.Repo {
	return teamStore{store: s}
}

func (t teamStore) UpsertTeam(team *teams.Team) error {
	_, err := t.store.sqlDB.Exec(`
INSERT INTO teams (id, owner_kind, owner_id) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET owner_kind = excluded.owner_kind, owner_id = excluded.owner_id`,
		team.ID, string(team.OwnerKind), team.OwnerID)
	return errors.Wrap(err, "[teamStore.UpsertTeam]")
}

func (t teamStore) GetTeam(teamID string) (*teams.Team, error) {
	var team teams.Team
	var ownerKind string
	err := t.store.sqlDB.QueryRow(`
SELECT id, owner_kind, owner_id FROM teams WHERE id = ?`, teamID).
		Scan(&team.ID, &ownerKind, &team.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, teams.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[teamStore.GetTeam]")
	}
	team.OwnerKind = teams.OwnerKind(ownerKind)
	return &team, nil
}

func (t teamStore) UpsertMember(member *teams.Member) error {
	_, err := t.store.sqlDB.Exec(`
INSERT INTO team_members (team_id, user_id, permissions, org_permissions, accepted, role)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(team_id, user_id) DO UPDATE SET
	permissions = excluded.permissions,
	org_permissions = excluded.org_permissions,
	accepted = excluded.accepted,
	role = excluded.role`,
		member.TeamID, member.UserID, int64(member.Permissions.Bits()),
		int64(member.OrgPermissions.Bits()), member.Accepted, member.Role)
	return errors.Wrap(err, "[teamStore.UpsertMember]")
}

func (t teamStore) GetMember(teamID, userID string) (*teams.Member, error) {
	row := t.store.sqlDB.QueryRow(`
SELECT team_id, user_id, permissions, org_permissions, accepted, role
FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID)
	return scanMember(row)
}

func (t teamStore) RemoveMember(teamID, userID string) error {
	_, err := t.store.sqlDB.Exec(`
DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID)
	return errors.Wrap(err, "[teamStore.RemoveMember]")
}

func (t teamStore) ListMembers(teamID string) ([]*teams.Member, error) {
	rows, err := t.store.sqlDB.Query(`
SELECT team_id, user_id, permissions, org_permissions, accepted, role
FROM team_members WHERE team_id = ? ORDER BY user_id`, teamID)
	if err != nil {
		return nil, errors.Wrap(err, "[teamStore.ListMembers] query")
	}
	defer rows.Close()

	list := make([]*teams.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, member)
	}
	return list, errors.Wrap(rows.Err(), "[teamStore.ListMembers] rows")
}

func scanMember(row rowScanner) (*teams.Member, error) {
	var (
		member   teams.Member
		perms    int64
		orgPerms int64
	)
	err := row.Scan(&member.TeamID, &member.UserID, &perms, &orgPerms, &member.Accepted, &member.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, teams.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scanMember")
	}
	member.Permissions = permissions.ProjectPermissionsFromBits(uint64(perms))
	member.OrgPermissions = permissions.OrganizationPermissionsFromBits(uint64(orgPerms))
	return &member, nil
}
