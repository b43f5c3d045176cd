// Package memory is a process-local store driver. It keeps state in maps
// behind a single lock and is meant for development and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
)

type Store struct {
	mu      sync.RWMutex
	clients map[string]domain.Client
	codes   map[string]domain.AuthorizationCode
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		clients: make(map[string]domain.Client),
		codes:   make(map[string]domain.AuthorizationCode),
	}
}

func (s *Store) Clients() store.Clients                       { return (*clientsRepo)(s) }
func (s *Store) AuthorizationCodes() store.AuthorizationCodes { return (*codesRepo)(s) }

func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

type clientsRepo Store

func (r *clientsRepo) GetClientByID(_ context.Context, id string) (domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return domain.Client{}, store.E("clients.get", store.KindNotFound, nil)
	}
	return cloneClient(c), nil
}

func (r *clientsRepo) ListClients(context.Context) ([]domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, cloneClient(c))
	}
	slices.SortFunc(out, func(a, b domain.Client) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *clientsRepo) UpsertClient(_ context.Context, c domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	c = cloneClient(c)
	c.UpdatedAt = now
	switch existing, ok := r.clients[c.ID]; {
	case ok:
		c.CreatedAt = existing.CreatedAt
	case c.CreatedAt.IsZero():
		c.CreatedAt = now
	}
	r.clients[c.ID] = c
	return nil
}

func (r *clientsRepo) DeleteClient(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return store.E("clients.delete", store.KindNotFound, nil)
	}
	delete(r.clients, id)
	return nil
}

type codesRepo Store

func (r *codesRepo) CreateAuthorizationCode(_ context.Context, code domain.AuthorizationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[code.CodeHash]; ok {
		return store.E("authorization_codes.insert", store.KindAlreadyExists, nil)
	}
	code.TokenSet = slices.Clone(code.TokenSet)
	r.codes[code.CodeHash] = code
	return nil
}

func (r *codesRepo) GetAuthorizationCodeByHash(_ context.Context, hash string) (domain.AuthorizationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.codes[hash]
	if !ok {
		return domain.AuthorizationCode{}, store.E("authorization_codes.get", store.KindNotFound, nil)
	}
	code.TokenSet = slices.Clone(code.TokenSet)
	return code, nil
}

func (r *codesRepo) ConsumeAuthorizationCode(
	_ context.Context,
	hash string,
	now, invalidatedAt time.Time,
) (domain.AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[hash]
	if !ok {
		return domain.AuthorizationCode{}, store.E("authorization_codes.consume", store.KindNotFound, nil)
	}
	if code.Expired(now) {
		return domain.AuthorizationCode{}, store.E("authorization_codes.consume", store.KindConditionFailed, nil)
	}

	code.ExpiresAt = invalidatedAt
	r.codes[hash] = code

	code.TokenSet = slices.Clone(code.TokenSet)
	return code, nil
}

func (r *codesRepo) DeleteExpiredAuthorizationCodes(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, code := range r.codes {
		if code.Expired(before) {
			delete(r.codes, hash)
			n++
		}
	}
	return n, nil
}

func cloneClient(c domain.Client) domain.Client {
	c.RedirectURIs = slices.Clone(c.RedirectURIs)
	return c
}
