package store

import (
	"context"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
)

// Store is the root data access interface. Concrete drivers (sqlite, redis,
// memory) implement this. Every multi-step invariant the services rely on is
// expressed as a single atomic driver operation, so there are no transactions
// at this level.
type Store interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes

	// ApplyMigrations brings the backing schema up to date. Drivers without a
	// schema treat it as a no-op.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// Clients is read-only to the grant flow; writes happen through the
// administrative seeding path.
type Clients interface {
	// GetClientByID fetches a client. Returns KindNotFound for unknown ids.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by id.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// UpsertClient creates the client or replaces its name, secret and
	// redirect URIs.
	UpsertClient(ctx context.Context, c domain.Client) error

	// DeleteClient removes a client. Returns KindNotFound for unknown ids.
	DeleteClient(ctx context.Context, id string) error
}

type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted code. It fails with
	// KindAlreadyExists when a record with the same hash is present.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCodeByHash fetches a code by its fingerprint.
	GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// ConsumeAuthorizationCode atomically fetches the code and sets its
	// expiry to invalidatedAt, provided it has not expired at now. Returns
	// KindNotFound for unknown codes and KindConditionFailed for expired or
	// already consumed ones. The returned record carries the new expiry.
	ConsumeAuthorizationCode(
		ctx context.Context,
		hash string,
		now, invalidatedAt time.Time,
	) (domain.AuthorizationCode, error)

	// DeleteExpiredAuthorizationCodes removes codes that expired at or before
	// the cutoff and reports how many were removed.
	DeleteExpiredAuthorizationCodes(ctx context.Context, before time.Time) (int64, error)
}
