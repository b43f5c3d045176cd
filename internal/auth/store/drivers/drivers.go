// Package drivers selects and opens a store driver from configuration.
package drivers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/sqlite"
)

// Type names a store backend.
type Type string

const (
	TypeSQLite Type = "sqlite"
	TypeRedis  Type = "redis"
	TypeMemory Type = "memory"
)

// ParseType maps a configuration string onto a Type. Unknown values are
// returned as-is so Open can report them.
func ParseType(s string) Type {
	return Type(strings.ToLower(strings.TrimSpace(s)))
}

type Config struct {
	Type Type

	// SQLiteDSN is passed to the sqlite driver, e.g.
	// "file:codegrant.db?_pragma=busy_timeout(5000)".
	SQLiteDSN string

	Redis redis.Config
}

// Open creates the configured store, applies migrations and verifies the
// backend is reachable.
func Open(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		s   store.Store
		err error
	)

	switch cfg.Type {
	case TypeSQLite, "":
		s, err = sqlite.NewStore(cfg.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	case TypeRedis:
		s = redis.NewStore(cfg.Redis)
	case TypeMemory:
		s = memory.NewStore()
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Type)
	}

	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Type, err)
	}

	return s, nil
}
