package drivers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	require.Equal(t, TypeRedis, ParseType(" Redis "))
	require.Equal(t, TypeSQLite, ParseType("sqlite"))
	require.Equal(t, TypeMemory, ParseType("MEMORY"))
	require.Equal(t, Type("dynamo"), ParseType("dynamo"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite is the default", func(t *testing.T) {
		s, err := Open(ctx, Config{SQLiteDSN: ":memory:"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.IsType(t, &sqlite.Store{}, s)
	})

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, Config{Type: TypeMemory})
		require.NoError(t, err)
		require.IsType(t, &memory.Store{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := Open(ctx, Config{
			Type:  TypeRedis,
			Redis: redis.Config{Addr: mr.Addr(), Retention: time.Hour},
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.IsType(t, &redis.Store{}, s)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := Open(ctx, Config{
			Type:  TypeRedis,
			Redis: redis.Config{Addr: addr, DialTimeout: 200 * time.Millisecond},
		})
		require.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, Config{Type: "dynamo"})
		require.ErrorContains(t, err, "unsupported store driver")
	})
}
