package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/craterhub/authcore/clients"
	"github.com/craterhub/authcore/grants"
	"github.com/craterhub/authcore/permissions"
	"github.com/craterhub/authcore/projects"
	"github.com/craterhub/authcore/scopes"
	"github.com/craterhub/authcore/store/sqlite"
	"github.com/craterhub/authcore/teams"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "authcore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testClient(id string) *clients.Client {
	return &clients.Client{
		ID:         id,
		Name:       "Test App",
		MaxScopes:  scopes.ProjectRead | scopes.VersionRead,
		SecretHash: "hashed",
		Created:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		CreatedBy:  "owner-1",
		RedirectURIs: []clients.RedirectURI{
			{ID: id + "-uri-1", ClientID: id, URI: "https://app.example.com/callback"},
		},
	}
}

func TestClientRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.Clients()

	want := testClient("client-1")
	require.NoError(t, repo.Upsert(want))

	got, err := repo.Get("client-1")
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = repo.Get("missing")
	require.ErrorIs(t, err, clients.ErrNotFound)

	owned, err := repo.ListByOwner("owner-1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
}

func TestClientScopesPreserveUnknownBits(t *testing.T) {
	store := openTestStore(t)
	repo := store.Clients()

	want := testClient("client-1")
	want.MaxScopes = scopes.FromBits(scopes.ProjectRead.Bits() | 1<<62)
	require.NoError(t, repo.Upsert(want))

	got, err := repo.Get("client-1")
	require.NoError(t, err)
	require.Equal(t, want.MaxScopes, got.MaxScopes)
}

func TestRemoveClientCascade(t *testing.T) {
	store := openTestStore(t)
	clientRepo := store.Clients()
	grantRepo := store.Grants()

	require.NoError(t, clientRepo.Upsert(testClient("client-1")))
	require.NoError(t, grantRepo.Upsert(&grants.Authorization{
		ID: "grant-1", ClientID: "client-1", UserID: "user-1",
		Scopes: scopes.ProjectRead, Created: time.Now(),
	}))

	cascade, ok := clientRepo.(clients.CascadeRemover)
	require.True(t, ok, "sqlite client store must support transactional cascade")
	require.NoError(t, cascade.RemoveClientCascade("client-1"))

	_, err := clientRepo.Get("client-1")
	require.ErrorIs(t, err, clients.ErrNotFound)
	_, err = grantRepo.GetForClientUser("client-1", "user-1")
	require.ErrorIs(t, err, grants.ErrNotFound)

	list, err := grantRepo.ListForUser("user-1")
	require.NoError(t, err)
	require.Empty(t, list, "no orphan grant rows may remain")
}

func TestGrantUpsertUnionsScopes(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Clients().Upsert(testClient("client-1")))
	repo := store.Grants()
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(&grants.Authorization{
		ID: "grant-1", ClientID: "client-1", UserID: "user-1",
		Scopes: scopes.ProjectRead, Created: created,
	}))
	require.NoError(t, repo.Upsert(&grants.Authorization{
		ID: "grant-2", ClientID: "client-1", UserID: "user-1",
		Scopes: scopes.UserRead, Created: created.Add(time.Hour),
	}))

	got, err := repo.GetForClientUser("client-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, scopes.ProjectRead|scopes.UserRead, got.Scopes)
	require.Equal(t, "grant-1", got.ID)
	require.Equal(t, created, got.Created, "first grant's creation time is kept")
}

func TestGrantRequiresExistingClient(t *testing.T) {
	store := openTestStore(t)

	err := store.Grants().Upsert(&grants.Authorization{
		ID: "grant-1", ClientID: "no-such-client", UserID: "user-1",
		Scopes: scopes.ProjectRead, Created: time.Now(),
	})
	require.Error(t, err, "foreign keys must be enforced")
}

func TestTeamMembershipRoundTrip(t *testing.T) {
	store := openTestStore(t)
	teamRepo := store.Teams()
	projectRepo := store.Projects()

	require.NoError(t, teamRepo.UpsertTeam(&teams.Team{
		ID: "team-1", OwnerKind: teams.OwnerProject, OwnerID: "project-1",
	}))
	require.NoError(t, projectRepo.UpsertProject(&projects.Project{
		ID: "project-1", TeamID: "team-1", OrganizationID: "org-1",
	}))
	require.NoError(t, projectRepo.UpsertOrganization(&projects.Organization{
		ID: "org-1", TeamID: "team-2",
	}))
	require.NoError(t, teamRepo.UpsertMember(&teams.Member{
		TeamID: "team-1", UserID: "user-1",
		Permissions: permissions.EditDetails, Accepted: true, Role: "Member",
	}))

	member, err := teamRepo.GetMember("team-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, permissions.EditDetails, member.Permissions)
	require.True(t, member.Accepted)

	_, err = teamRepo.GetMember("team-1", "user-2")
	require.ErrorIs(t, err, teams.ErrNotFound)

	project, err := projectRepo.GetProject("project-1")
	require.NoError(t, err)
	require.Equal(t, "org-1", project.OrganizationID)

	members, err := teamRepo.ListMembers("team-1")
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, teamRepo.RemoveMember("team-1", "user-1"))
	_, err = teamRepo.GetMember("team-1", "user-1")
	require.ErrorIs(t, err, teams.ErrNotFound)
}

func TestResolverAgainstSQLiteStore(t *testing.T) {
	store := openTestStore(t)
	teamRepo := store.Teams()
	projectRepo := store.Projects()

	require.NoError(t, teamRepo.UpsertTeam(&teams.Team{
		ID: "team-project", OwnerKind: teams.OwnerProject, OwnerID: "project-1",
	}))
	require.NoError(t, teamRepo.UpsertTeam(&teams.Team{
		ID: "team-org", OwnerKind: teams.OwnerOrganization, OwnerID: "org-1",
	}))
	require.NoError(t, projectRepo.UpsertProject(&projects.Project{
		ID: "project-1", TeamID: "team-project", OrganizationID: "org-1",
	}))
	require.NoError(t, projectRepo.UpsertOrganization(&projects.Organization{
		ID: "org-1", TeamID: "team-org",
	}))
	require.NoError(t, teamRepo.UpsertMember(&teams.Member{
		TeamID: "team-org", UserID: "user-1",
		OrgPermissions: permissions.OrgEditDetails, Accepted: true,
	}))

	resolver, err := teams.NewResolver(teamRepo, projectRepo)
	require.NoError(t, err)

	perms, err := resolver.EffectiveProjectPermissions("user-1", "project-1")
	require.NoError(t, err)
	require.Equal(t, permissions.OrgEditDetails.ProjectDefaults(), perms)

	// A project-team row, even empty, replaces the projected org permissions.
	require.NoError(t, teamRepo.UpsertMember(&teams.Member{
		TeamID: "team-project", UserID: "user-1", Accepted: true,
	}))
	perms, err = resolver.EffectiveProjectPermissions("user-1", "project-1")
	require.NoError(t, err)
	require.Equal(t, permissions.ProjectPermissions(0), perms)
}
