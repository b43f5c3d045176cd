// Package redis stores clients and authorization codes in Redis. Codes are
// hashes whose keys expire natively once their retention window has passed,
// and every conditional write runs as a Lua script so it is atomic on the
// server.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	goredis "github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "codegrant:"

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string

	// Retention is how long a code record outlives its expiry before Redis
	// evicts it.
	Retention time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Store struct {
	client    goredis.UniversalClient
	keyPrefix string
	retention time.Duration
}

var _ store.Store = (*Store)(nil)

// NewStore dials Redis using cfg. The connection is verified lazily; call
// Ping to check it eagerly.
func NewStore(cfg Config) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  orDefault(cfg.DialTimeout, DefaultDialTimeout),
		ReadTimeout:  orDefault(cfg.ReadTimeout, DefaultReadTimeout),
		WriteTimeout: orDefault(cfg.WriteTimeout, DefaultWriteTimeout),
	})
	return NewStoreWithClient(client, cfg.KeyPrefix, cfg.Retention)
}

// NewStoreWithClient wraps an existing client. Useful for tests against
// miniredis.
func NewStoreWithClient(client goredis.UniversalClient, keyPrefix string, retention time.Duration) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		retention: retention,
	}
}

func (s *Store) Clients() store.Clients {
	return &clientsRepo{client: s.client, keyPrefix: s.keyPrefix}
}

func (s *Store) AuthorizationCodes() store.AuthorizationCodes {
	return &authorizationCodesRepo{client: s.client, keyPrefix: s.keyPrefix, retention: s.retention}
}

// ApplyMigrations is a no-op; Redis has no schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return store.E("ping", store.KindUnavailable, err)
	}
	return nil
}

func redisKey(prefix, keyType, id string) string {
	return prefix + keyType + ":" + id
}

// mapErr converts go-redis errors into store errors for op.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.Nil):
		return store.E(op, store.KindNotFound, nil)
	default:
		return store.E(op, store.KindUnavailable, err)
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
