package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

const (
	webClientID  = "web"
	webSecret    = "s3cret"
	webRedirect  = "https://app.example.com/callback"
	cliClientID  = "cli"
	cliRedirect  = "http://localhost:8765/cb"
	testTokenSet = `{"access_token":"abc"}`
)

// seededStore returns a memory store with a confidential "web" client and a
// public "cli" client.
func seededStore(t *testing.T) store.Store {
	t.Helper()
	s := memory.NewStore()
	seedClients(t, s)
	return s
}

func seededSQLiteStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	seedClients(t, s)
	return s
}

func seedClients(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Clients().UpsertClient(ctx, domain.Client{
		ID:           webClientID,
		Name:         "Web",
		Secret:       webSecret,
		RedirectURIs: []string{webRedirect},
	}))
	require.NoError(t, s.Clients().UpsertClient(ctx, domain.Client{
		ID:           cliClientID,
		Name:         "CLI",
		RedirectURIs: []string{cliRedirect},
	}))
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Unix(1_700_000_000, 0)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// brokenStore fails every authorization code and client operation with
// KindUnavailable.
type brokenStore struct {
	store.Store
}

var errBackend = errors.New("backend down")

func (brokenStore) Clients() store.Clients                       { return brokenRepo{} }
func (brokenStore) AuthorizationCodes() store.AuthorizationCodes { return brokenRepo{} }

type brokenRepo struct{}

func (brokenRepo) GetClientByID(context.Context, string) (domain.Client, error) {
	return domain.Client{}, store.E("clients.get", store.KindUnavailable, errBackend)
}

func (brokenRepo) ListClients(context.Context) ([]domain.Client, error) {
	return nil, store.E("clients.list", store.KindUnavailable, errBackend)
}

func (brokenRepo) UpsertClient(context.Context, domain.Client) error {
	return store.E("clients.upsert", store.KindUnavailable, errBackend)
}

func (brokenRepo) DeleteClient(context.Context, string) error {
	return store.E("clients.delete", store.KindUnavailable, errBackend)
}

func (brokenRepo) CreateAuthorizationCode(context.Context, domain.AuthorizationCode) error {
	return store.E("authorization_codes.create", store.KindUnavailable, errBackend)
}

func (brokenRepo) GetAuthorizationCodeByHash(context.Context, string) (domain.AuthorizationCode, error) {
	return domain.AuthorizationCode{}, store.E("authorization_codes.get", store.KindUnavailable, errBackend)
}

func (brokenRepo) ConsumeAuthorizationCode(context.Context, string, time.Time, time.Time) (domain.AuthorizationCode, error) {
	return domain.AuthorizationCode{}, store.E("authorization_codes.consume", store.KindUnavailable, errBackend)
}

func (brokenRepo) DeleteExpiredAuthorizationCodes(context.Context, time.Time) (int64, error) {
	return 0, store.E("authorization_codes.delete_expired", store.KindUnavailable, errBackend)
}
