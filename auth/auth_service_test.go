package auth_test

import (
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/craterhub/authcore/auth"
	"github.com/craterhub/authcore/auth/flowrepo"
	"github.com/craterhub/authcore/clients"
	fakeclientrepo "github.com/craterhub/authcore/clients/fakerepo"
	"github.com/craterhub/authcore/grants"
	fakegrantrepo "github.com/craterhub/authcore/grants/repofake"
	"github.com/craterhub/authcore/oauthmodel"
	"github.com/craterhub/authcore/scopes"
	"github.com/craterhub/authcore/token"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer      = "https://auth.craterhub.test"
	testSigningKey  = "0123456789abcdef0123456789abcdef"
	testOwnerID     = "owner-1"
	testUserID      = "user-1"
	testRedirectURI = "https://app.example.com/callback"
	testState       = "random-state-value"
)

// testFixture holds all test dependencies
type testFixture struct {
	clientRepo *fakeclientrepo.FakeClientRepo
	grantRepo  *fakegrantrepo.FakeGrantRepo
	flowRepo   *flowrepo.InMemory
	registry   *clients.Registry
	manager    *token.Manager
	service    *auth.AuthorizationService
	now        time.Time
}

// setupTestFixture creates a new test fixture with all dependencies and a
// controllable clock.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		clientRepo: fakeclientrepo.NewFakeClientRepo(),
		grantRepo:  fakegrantrepo.NewFakeGrantRepo(),
		flowRepo:   flowrepo.NewInMemory(),
		now:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	nowFunc := func() time.Time { return f.now }

	registry, err := clients.NewRegistry(f.clientRepo, f.grantRepo, clients.WithNowTime(nowFunc))
	require.NoError(t, err)
	f.registry = registry

	manager, err := token.New([]byte(testSigningKey), testIssuer, token.WithNowFunc(nowFunc))
	require.NoError(t, err)
	f.manager = manager

	service, err := auth.NewAuthorizationService(auth.Repos{
		Clients: f.clientRepo,
		Grants:  f.grantRepo,
		Flows:   f.flowRepo,
	}, manager, auth.WithNowTime(nowFunc))
	require.NoError(t, err)
	f.service = service

	return f
}

// registerTestClient registers a client and returns it with its plaintext
// secret.
func (f *testFixture) registerTestClient(t *testing.T, maxScopes scopes.Scopes, redirectURIs ...string) (*clients.Client, string) {
	t.Helper()
	if len(redirectURIs) == 0 {
		redirectURIs = []string{testRedirectURI}
	}
	client, secret, err := f.registry.Register("Test App", "", maxScopes, redirectURIs, testOwnerID)
	require.NoError(t, err)
	return client, secret
}

func queryParam(t *testing.T, rawURL, key string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	return parsed.Query().Get(key)
}

func TestBeginClampsRequestedScopes(t *testing.T) {
	f := setupTestFixture(t)
	ceiling := scopes.ProjectRead | scopes.VersionRead
	client, _ := f.registerTestClient(t, ceiling)

	cases := []scopes.Scopes{
		scopes.None,
		scopes.ProjectRead,
		ceiling,
		ceiling | scopes.UserReadEmail | scopes.ProjectDelete,
		scopes.FromBits(^uint64(0)),
	}
	for _, requested := range cases {
		request, err := f.service.Begin(client.ID, requested, "", testState, testUserID)
		require.NoError(t, err)

		flow, err := f.flowRepo.Get(request.FlowID)
		require.NoError(t, err)
		require.True(t, flow.Scopes.IsSubsetOf(ceiling), "narrowed scope must never exceed max_scopes")
		require.Equal(t, requested.Intersect(ceiling), flow.Scopes)
	}
}

func TestBeginUnknownClient(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Begin("no-such-client", scopes.ProjectRead, "", "", testUserID)
	require.ErrorIs(t, err, auth.ErrUnknownClient)
}

func TestBeginRedirectURIResolution(t *testing.T) {
	f := setupTestFixture(t)
	single, _ := f.registerTestClient(t, scopes.ProjectRead)
	multi, _ := f.registerTestClient(t, scopes.ProjectRead,
		"https://app.example.com/callback", "https://app.example.com/other")

	// Omitted URI falls back to the sole registered one.
	request, err := f.service.Begin(single.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)
	flow, err := f.flowRepo.Get(request.FlowID)
	require.NoError(t, err)
	require.Equal(t, testRedirectURI, flow.RedirectURI)

	// Omitted URI with several registered is ambiguous.
	_, err = f.service.Begin(multi.ID, scopes.ProjectRead, "", "", testUserID)
	require.ErrorIs(t, err, auth.ErrRedirectMismatch)

	// An unregistered URI is refused; registered ones match exactly.
	_, err = f.service.Begin(single.ID, scopes.ProjectRead, "https://evil.example.com/", "", testUserID)
	require.ErrorIs(t, err, auth.ErrRedirectMismatch)

	_, err = f.service.Begin(multi.ID, scopes.ProjectRead, "https://app.example.com/other", "", testUserID)
	require.NoError(t, err)
}

func TestFullFlowIssuesTokenWithNarrowedScope(t *testing.T) {
	f := setupTestFixture(t)
	ceiling := scopes.ProjectRead | scopes.VersionRead
	client, secret := f.registerTestClient(t, ceiling)

	request, err := f.service.Begin(client.ID, ceiling|scopes.UserWrite, testRedirectURI, testState, testUserID)
	require.NoError(t, err)

	redirect, err := f.service.Accept(request.FlowID, testUserID)
	require.NoError(t, err)
	code := queryParam(t, redirect, "code")
	require.NotEmpty(t, code)
	require.Equal(t, testState, queryParam(t, redirect, "state"))

	response, err := f.service.Exchange(oauthmodel.TokenRequest{
		GrantType:    oauthmodel.GrantTypeAuthorizationCode,
		Code:         code,
		RedirectURI:  testRedirectURI,
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", response.TokenType)
	require.Equal(t, ceiling.String(), response.Scope)

	intro, err := f.manager.Introspect(response.AccessToken)
	require.NoError(t, err)
	require.True(t, intro.Active)
	require.Equal(t, testUserID, intro.Sub)
	require.Equal(t, client.ID, intro.ClientID)
	require.Equal(t, ceiling, intro.Scopes)

	grant, err := f.grantRepo.GetForClientUser(client.ID, testUserID)
	require.NoError(t, err)
	require.Equal(t, ceiling, grant.Scopes)

	// The code is single-use.
	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType:    oauthmodel.GrantTypeAuthorizationCode,
		Code:         code,
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	require.ErrorIs(t, err, auth.ErrInvalidGrant)
}

func TestRepeatedFlowsUnionGrantScopes(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead|scopes.VersionRead|scopes.UserRead)

	exchangeWith := func(requested scopes.Scopes) {
		request, err := f.service.Begin(client.ID, requested, "", "", testUserID)
		require.NoError(t, err)
		redirect, err := f.service.Accept(request.FlowID, testUserID)
		require.NoError(t, err)
		_, err = f.service.Exchange(oauthmodel.TokenRequest{
			GrantType:    oauthmodel.GrantTypeAuthorizationCode,
			Code:         queryParam(t, redirect, "code"),
			ClientID:     client.ID,
			ClientSecret: secret,
		})
		require.NoError(t, err)
	}

	exchangeWith(scopes.ProjectRead)
	firstGrant, err := f.grantRepo.GetForClientUser(client.ID, testUserID)
	require.NoError(t, err)

	f.now = f.now.Add(time.Minute)
	exchangeWith(scopes.UserRead)

	grant, err := f.grantRepo.GetForClientUser(client.ID, testUserID)
	require.NoError(t, err)
	require.Equal(t, scopes.ProjectRead|scopes.UserRead, grant.Scopes, "grants union, never shrink")
	require.Equal(t, firstGrant.Created, grant.Created, "creation time of the first grant is kept")
}

func TestConcurrentExchangeExactlyOneSuccess(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)
	redirect, err := f.service.Accept(request.FlowID, testUserID)
	require.NoError(t, err)
	code := queryParam(t, redirect, "code")

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Exchange(oauthmodel.TokenRequest{
				GrantType:    oauthmodel.GrantTypeAuthorizationCode,
				Code:         code,
				ClientID:     client.ID,
				ClientSecret: secret,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, auth.ErrInvalidGrant)
		}
	}
	require.Equal(t, 1, successes, "exactly one of the concurrent exchanges may win")
}

func TestAcceptGuards(t *testing.T) {
	f := setupTestFixture(t)
	client, _ := f.registerTestClient(t, scopes.ProjectRead)

	_, err := f.service.Accept("no-such-flow", testUserID)
	require.ErrorIs(t, err, auth.ErrFlowNotFound)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)
	_, err = f.service.Accept(request.FlowID, "someone-else")
	require.ErrorIs(t, err, auth.ErrFlowOwnerMismatch)

	// Expired flows are indistinguishable from absent ones.
	f.now = f.now.Add(time.Hour)
	_, err = f.service.Accept(request.FlowID, testUserID)
	require.ErrorIs(t, err, auth.ErrFlowNotFound)
}

func TestRejectSettlesFlow(t *testing.T) {
	f := setupTestFixture(t)
	client, _ := f.registerTestClient(t, scopes.ProjectRead)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", testState, testUserID)
	require.NoError(t, err)

	redirect, err := f.service.Reject(request.FlowID, testUserID)
	require.NoError(t, err)
	require.Equal(t, "access_denied", queryParam(t, redirect, "error"))
	require.Equal(t, testState, queryParam(t, redirect, "state"))
	require.Empty(t, queryParam(t, redirect, "code"))

	// Accept after reject fails; the flow is gone.
	_, err = f.service.Accept(request.FlowID, testUserID)
	require.ErrorIs(t, err, auth.ErrFlowNotFound)

	// And the reverse order: reject after accept also fails.
	request, err = f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)
	_, err = f.service.Accept(request.FlowID, testUserID)
	require.NoError(t, err)
	_, err = f.service.Reject(request.FlowID, testUserID)
	require.ErrorIs(t, err, auth.ErrFlowNotFound)
}

func TestConcurrentAcceptRejectSettlesOnce(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)

	for i := 0; i < 50; i++ {
		request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			acceptURL string
			acceptErr error
			rejectErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			acceptURL, acceptErr = f.service.Accept(request.FlowID, testUserID)
		}()
		go func() {
			defer wg.Done()
			_, rejectErr = f.service.Reject(request.FlowID, testUserID)
		}()
		wg.Wait()

		// Exactly one settlement wins; the loser finds the flow already
		// settled.
		require.True(t, (acceptErr == nil) != (rejectErr == nil),
			"accept err %v, reject err %v", acceptErr, rejectErr)
		if acceptErr != nil {
			require.ErrorIs(t, acceptErr, auth.ErrFlowNotFound)
		} else {
			require.ErrorIs(t, rejectErr, auth.ErrFlowNotFound)
		}

		code := ""
		if acceptErr == nil {
			code = queryParam(t, acceptURL, "code")
			require.NotEmpty(t, code)
		}

		_, err = f.service.Exchange(oauthmodel.TokenRequest{
			GrantType:    oauthmodel.GrantTypeAuthorizationCode,
			Code:         code,
			ClientID:     client.ID,
			ClientSecret: secret,
		})
		if acceptErr == nil {
			require.NoError(t, err, "an accepted flow's code must exchange")
		} else {
			require.ErrorIs(t, err, auth.ErrInvalidGrant,
				"a denied flow must never yield a usable code")
		}
	}
}

func TestExchangeValidation(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)
	otherClient, otherSecret := f.registerTestClient(t, scopes.ProjectRead)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)
	redirect, err := f.service.Accept(request.FlowID, testUserID)
	require.NoError(t, err)
	code := queryParam(t, redirect, "code")

	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType: "client_credentials", Code: code, ClientID: client.ID, ClientSecret: secret,
	})
	require.ErrorIs(t, err, auth.ErrUnsupportedGrantType)

	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType: oauthmodel.GrantTypeAuthorizationCode, Code: code,
		ClientID: "no-such-client", ClientSecret: secret,
	})
	require.ErrorIs(t, err, auth.ErrInvalidClient)

	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType: oauthmodel.GrantTypeAuthorizationCode, Code: code,
		ClientID: client.ID, ClientSecret: "wrong-secret",
	})
	require.ErrorIs(t, err, auth.ErrInvalidClient)

	// A different client presenting a stolen code gets invalid_grant.
	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType: oauthmodel.GrantTypeAuthorizationCode, Code: code,
		ClientID: otherClient.ID, ClientSecret: otherSecret,
	})
	require.ErrorIs(t, err, auth.ErrInvalidGrant)
}

func TestExchangeRedirectURIMustMatchCapturedOne(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, testRedirectURI, "", testUserID)
	require.NoError(t, err)
	redirect, err := f.service.Accept(request.FlowID, testUserID)
	require.NoError(t, err)

	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType:    oauthmodel.GrantTypeAuthorizationCode,
		Code:         queryParam(t, redirect, "code"),
		RedirectURI:  "https://app.example.com/elsewhere",
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	require.ErrorIs(t, err, auth.ErrInvalidGrant)
}

func TestExchangeRequiresAcceptedFlow(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)

	// A flow still in Created state has no code; any guess fails.
	_, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)

	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType:    oauthmodel.GrantTypeAuthorizationCode,
		Code:         "guessed-code",
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	require.ErrorIs(t, err, auth.ErrInvalidGrant)
}

func TestExpiredCodeCannotBeExchanged(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)
	redirect, err := f.service.Accept(request.FlowID, testUserID)
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType:    oauthmodel.GrantTypeAuthorizationCode,
		Code:         queryParam(t, redirect, "code"),
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	require.ErrorIs(t, err, auth.ErrInvalidGrant)
}

// failingClientRepo fails every Get with a fixed store error.
type failingClientRepo struct {
	clients.Repo
	err error
}

func (r failingClientRepo) Get(string) (*clients.Client, error) { return nil, r.err }

// failingFlowRepo fails every settlement and exchange with a fixed store
// error.
type failingFlowRepo struct {
	auth.FlowRepo
	err error
}

func (r failingFlowRepo) Accept(string, string, string, time.Time) (*auth.Flow, error) {
	return nil, r.err
}

func (r failingFlowRepo) Reject(string, string, time.Time) (*auth.Flow, error) {
	return nil, r.err
}

func (r failingFlowRepo) ConsumeCode(string, time.Time) (*auth.Flow, error) {
	return nil, r.err
}

func TestClientStoreFailureIsNotMaskedAsUnknownClient(t *testing.T) {
	f := setupTestFixture(t)
	errStoreDown := errors.New("store unavailable")

	service, err := auth.NewAuthorizationService(auth.Repos{
		Clients: failingClientRepo{Repo: f.clientRepo, err: errStoreDown},
		Grants:  f.grantRepo,
		Flows:   f.flowRepo,
	}, f.manager, auth.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)

	// A store outage must stay distinguishable from "no such client": the
	// cause is preserved and no coarse sentinel is substituted.
	_, err = service.Begin("client-1", scopes.ProjectRead, "", "", testUserID)
	require.ErrorIs(t, err, errStoreDown)
	require.NotErrorIs(t, err, auth.ErrUnknownClient)

	_, err = service.Exchange(oauthmodel.TokenRequest{
		GrantType: oauthmodel.GrantTypeAuthorizationCode, Code: "some-code",
		ClientID: "client-1", ClientSecret: "secret",
	})
	require.ErrorIs(t, err, errStoreDown)
	require.NotErrorIs(t, err, auth.ErrInvalidClient)
}

func TestFlowStoreFailureIsNotMaskedAsFlowError(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)
	errStoreDown := errors.New("store unavailable")

	service, err := auth.NewAuthorizationService(auth.Repos{
		Clients: f.clientRepo,
		Grants:  f.grantRepo,
		Flows:   failingFlowRepo{FlowRepo: f.flowRepo, err: errStoreDown},
	}, f.manager, auth.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)

	_, err = service.Accept(request.FlowID, testUserID)
	require.ErrorIs(t, err, errStoreDown)
	require.NotErrorIs(t, err, auth.ErrFlowNotFound)

	_, err = service.Reject(request.FlowID, testUserID)
	require.ErrorIs(t, err, errStoreDown)
	require.NotErrorIs(t, err, auth.ErrFlowNotFound)

	_, err = service.Exchange(oauthmodel.TokenRequest{
		GrantType: oauthmodel.GrantTypeAuthorizationCode, Code: "some-code",
		ClientID: client.ID, ClientSecret: secret,
	})
	require.ErrorIs(t, err, errStoreDown)
	require.NotErrorIs(t, err, auth.ErrInvalidGrant)
}

func TestExchangeFailsAfterClientRemoval(t *testing.T) {
	f := setupTestFixture(t)
	client, secret := f.registerTestClient(t, scopes.ProjectRead)

	request, err := f.service.Begin(client.ID, scopes.ProjectRead, "", "", testUserID)
	require.NoError(t, err)
	redirect, err := f.service.Accept(request.FlowID, testUserID)
	require.NoError(t, err)

	require.NoError(t, f.registry.Remove(client.ID, testOwnerID))

	_, err = f.service.Exchange(oauthmodel.TokenRequest{
		GrantType:    oauthmodel.GrantTypeAuthorizationCode,
		Code:         queryParam(t, redirect, "code"),
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	require.ErrorIs(t, err, auth.ErrInvalidClient)

	_, err = f.grantRepo.GetForClientUser(client.ID, testUserID)
	require.ErrorIs(t, err, grants.ErrNotFound)
}
