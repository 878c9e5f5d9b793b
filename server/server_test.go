package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-hms-admin/api"
	"github.com/jrsteele09/go-hms-admin/apiclient"
	"github.com/jrsteele09/go-hms-admin/auth"
	"github.com/jrsteele09/go-hms-admin/internal/config"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/resources"
	"github.com/jrsteele09/go-hms-admin/server"
	"github.com/jrsteele09/go-hms-admin/server/records"
	fakesessionrepo "github.com/jrsteele09/go-hms-admin/sessions/repofakes"
	"github.com/jrsteele09/go-hms-admin/token"
	fakeuserrepo "github.com/jrsteele09/go-hms-admin/users/repofake"
	"github.com/jrsteele09/go-hms-admin/watcher"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	secretStr    = "1234"
	seedPassword = "password123"
)

type silentNotifier struct{}

func (silentNotifier) ShowExpiryNotice(context.Context, watcher.Notice) <-chan struct{} {
	return nil
}

type testFixture struct {
	now      time.Time
	accounts *fakeuserrepo.FakeUserRepo
	server   *server.Server
	http     *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("TOKEN_SECRET", secretStr)
	t.Setenv("SEED_PASSWORD", seedPassword)
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "http://console.local")

	accounts := fakeuserrepo.NewFakeUserRepo()
	srv, err := server.New(config.New(), server.Repos{
		Accounts: accounts,
		Records:  records.NewInMemoryRecordRepo(),
	}, server.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &testFixture{now: time.Now(), accounts: accounts, server: srv, http: ts}
}

func (f *testFixture) login(t *testing.T, username string) *apiclient.Client {
	t.Helper()
	client := apiclient.New(f.http.URL)
	resp, err := client.Login(context.Background(), username, seedPassword)
	require.NoError(t, err)
	client.SetBearerToken(resp.BearerToken())
	return client
}

func TestNewRequiresRepos(t *testing.T) {
	_, err := server.New(config.New(), server.Repos{Records: records.NewInMemoryRecordRepo()})
	require.Error(t, err)
	_, err = server.New(config.New(), server.Repos{Accounts: fakeuserrepo.NewFakeUserRepo()})
	require.Error(t, err)
}

func TestSeededAccounts(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, seedPassword, f.server.SeedPassword())

	for _, seed := range server.SeedAccounts {
		account, err := f.accounts.GetByUsername(seed.Username)
		require.NoError(t, err)
		require.NotEqual(t, seedPassword, account.PasswordHash)
		require.Equal(t, seed.Roles, account.Roles)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := apiclient.New(f.http.URL).Login(context.Background(), "nurse", seedPassword)
	require.NoError(t, err)
	require.Equal(t, "nurse", resp.User.Username)

	claims, err := token.Verify(resp.BearerToken(), token.NewHMACSigner(secretStr))
	require.NoError(t, err)
	require.Equal(t, "nurse", claims.Subject())
	require.Equal(t, []string{"ROLE_NURSE"}, claims.Roles())
	require.Contains(t, claims.Permissions(), "beds:write")
	require.WithinDuration(t, f.now.Add(time.Hour), claims.ExpiresAt(), 5*time.Second)
	require.Equal(t, "Carla", claims.User().FirstName)
	require.NotEmpty(t, claims["jti"])

	account, err := f.accounts.GetByUsername("nurse")
	require.NoError(t, err)
	require.False(t, account.LastLogin.IsZero())
}

func TestLoginByEmail(t *testing.T) {
	f := setupTestFixture(t)
	_, err := apiclient.New(f.http.URL).Login(context.Background(), "labtech@hospital.local", seedPassword)
	require.NoError(t, err)
}

func TestLoginRejections(t *testing.T) {
	f := setupTestFixture(t)
	client := apiclient.New(f.http.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, "admin", "wrong")
	require.ErrorIs(t, err, hmserrors.ErrLoginFailed)
	require.Equal(t, "Invalid username or password", apiclient.LoginMessage(err))

	_, err = client.Login(ctx, "nobody", seedPassword)
	require.Equal(t, "Invalid username or password", apiclient.LoginMessage(err))

	account, err := f.accounts.GetByUsername("reception")
	require.NoError(t, err)
	account.Blocked = true
	_, err = client.Login(ctx, "reception", seedPassword)
	require.ErrorIs(t, err, hmserrors.ErrForbidden)
	require.Contains(t, apiclient.LoginMessage(err), "blocked")
}

func TestReadsRequireToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := resources.Beds(apiclient.New(f.http.URL)).List(context.Background())
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)

	client := apiclient.New(f.http.URL)
	client.SetBearerToken("not.a.token")
	_, err = resources.Beds(client).List(context.Background())
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
}

func TestCollectionCRUD(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, "admin")
	beds := resources.Beds(admin)
	ctx := context.Background()

	seeded, err := beds.List(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 3)

	created, err := beds.Create(ctx, resources.Bed{Number: "102-A", Ward: "General", Status: resources.BedAvailable})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := beds.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	got.Status = resources.BedOccupied
	got.PatientName = "John Doe"
	updated, err := beds.Update(ctx, created.ID, got)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "John Doe", updated.PatientName)

	require.NoError(t, beds.Delete(ctx, created.ID))
	_, err = beds.Get(ctx, created.ID)
	require.ErrorIs(t, err, hmserrors.ErrNotFound)

	_, err = beds.Update(ctx, "missing", got)
	require.ErrorIs(t, err, hmserrors.ErrNotFound)
}

func TestInvoiceTotalStoredByBackend(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, "admin")

	invoices, err := resources.Invoices(admin).List(context.Background())
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Equal(t, int64(2*12000+3500), invoices[0].Total)
}

func TestBackendValidatesBodies(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, "admin")

	// bypass client side validation
	err := admin.Do(context.Background(), http.MethodPost, api.CollectionPath(api.CollectionRooms), map[string]any{"number": "9"}, nil)
	require.ErrorIs(t, err, hmserrors.ErrInvalidRequest)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.NotEmpty(t, apiErr.RequestID)
}

func TestUnknownCollection(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, "admin")

	err := admin.Do(context.Background(), http.MethodGet, "/api/patients", nil, nil)
	require.ErrorIs(t, err, hmserrors.ErrNotFound)
}

func TestWritesRequireAdmin(t *testing.T) {
	f := setupTestFixture(t)
	nurse := f.login(t, "nurse")
	beds := resources.Beds(nurse)
	ctx := context.Background()

	list, err := beds.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	_, err = beds.Create(ctx, resources.Bed{Number: "X", Ward: "W", Status: resources.BedAvailable})
	require.ErrorIs(t, err, hmserrors.ErrForbidden)
	require.ErrorIs(t, beds.Delete(ctx, list[0].ID), hmserrors.ErrForbidden)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, "admin")
	ctx := context.Background()

	require.NoError(t, admin.Logout(ctx))
	_, err := resources.Rooms(admin).List(ctx)
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
}

func TestForgotPassword(t *testing.T) {
	f := setupTestFixture(t)
	client := apiclient.New(f.http.URL)
	ctx := context.Background()

	known, err := client.ForgotPassword(ctx, "admin@hospital.local")
	require.NoError(t, err)
	unknown, err := client.ForgotPassword(ctx, "ghost@hospital.local")
	require.NoError(t, err)
	require.Equal(t, known, unknown)

	_, err = client.ForgotPassword(ctx, "nope")
	require.ErrorIs(t, err, hmserrors.ErrInvalidRequest)
}

func TestRequestIDEchoed(t *testing.T) {
	f := setupTestFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.http.URL+server.RouteHealth, nil)
	require.NoError(t, err)
	req.Header.Set(api.HeaderRequestID, "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "req-42", resp.Header.Get(api.HeaderRequestID))
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.http.URL+api.CollectionPath(api.CollectionBeds), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://console.local")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://console.local", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), api.HeaderRequestID)
}

func TestSessionServiceAgainstBackend(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	repo := fakesessionrepo.NewFakeSessionRepo()
	client := apiclient.New(f.http.URL)

	service, err := auth.NewService(client, repo, silentNotifier{})
	require.NoError(t, err)
	defer service.Close()

	require.NoError(t, service.Login(ctx, "accountant", seedPassword))
	session := service.Session()
	require.True(t, session.IsAuthenticated)
	require.Equal(t, []string{"ROLE_ACCOUNTANT"}, session.Roles)
	require.Equal(t, []string{"invoices:read", "invoices:write"}, session.Permissions)

	var titles []string
	for _, e := range service.Menu() {
		titles = append(titles, e.Title)
	}
	require.Equal(t, []string{"Dashboard", "Billing"}, titles)

	invoices, err := resources.Invoices(service.Client()).List(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	require.NoError(t, service.Logout(ctx))
	_, err = resources.Invoices(service.Client()).List(ctx)
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
}

func TestFailedLoginsThrottled(t *testing.T) {
	t.Setenv("LOGIN_BURST", "2")
	t.Setenv("LOGIN_INTERVAL", "1h")
	f := setupTestFixture(t)
	client := apiclient.New(f.http.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, "nurse", "wrong")
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
	_, err = client.Login(ctx, "nurse", seedPassword)
	require.NoError(t, err)

	// a success resets the count
	for range 2 {
		_, err = client.Login(ctx, "nurse", "wrong")
		require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
	}
	_, err = client.Login(ctx, "NURSE", seedPassword)
	require.ErrorIs(t, err, hmserrors.ErrRateLimited)
	require.Contains(t, apiclient.LoginMessage(err), "Too many failed login attempts")

	_, err = client.Login(ctx, "admin", seedPassword)
	require.NoError(t, err)
}
