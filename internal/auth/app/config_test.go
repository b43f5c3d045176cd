package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "CODEGRANT_STORE_DRIVER", "CODEGRANT_CODE_TTL", "CODEGRANT_CODE_RETENTION",
		"CODEGRANT_UPSTREAM_SCOPES", "CODEGRANT_ISSUER_TOKEN", "CODEGRANT_REDIS_KEY_PREFIX",
		"CODEGRANT_TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "sqlite", cfg.StoreDriver)
	require.Equal(t, time.Hour, cfg.CodeTTL)
	require.Equal(t, 24*time.Hour, cfg.CodeRetention)
	require.Equal(t, "codegrant:", cfg.RedisKeyPrefix)
	require.Empty(t, cfg.UpstreamScopes)
	require.Empty(t, cfg.IssuerToken)
	require.Empty(t, cfg.TrustedProxies)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CODEGRANT_STORE_DRIVER", "Redis")
	t.Setenv("CODEGRANT_REDIS_ADDR", "redis:6379")
	t.Setenv("CODEGRANT_REDIS_DB", "2")
	t.Setenv("CODEGRANT_CODE_TTL", "90")
	t.Setenv("CODEGRANT_CODE_RETENTION", "2h")
	t.Setenv("CODEGRANT_UPSTREAM_SCOPES", "openid, profile email")
	t.Setenv("CODEGRANT_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg := LoadConfig()
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 90*time.Second, cfg.CodeTTL)
	require.Equal(t, 2*time.Hour, cfg.CodeRetention)
	require.Equal(t, []string{"openid", "profile", "email"}, cfg.UpstreamScopes)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
	require.NoError(t, cfg.Validate())

	sc := cfg.StoreConfig()
	require.Equal(t, drivers.TypeRedis, sc.Type)
	require.Equal(t, "redis:6379", sc.Redis.Addr)
	require.Equal(t, 2, sc.Redis.DB)
	require.Equal(t, 2*time.Hour, sc.Redis.Retention)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("CODEGRANT_CODE_TTL", "soon")

	cfg := LoadConfig()
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, time.Hour, cfg.CodeTTL)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{StoreDriver: "memory", Port: 8080, CodeTTL: time.Hour}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.StoreDriver = "postgres"
	require.ErrorContains(t, bad.Validate(), "unsupported driver")

	bad = valid
	bad.Port = 0
	require.Error(t, bad.Validate())

	bad = valid
	bad.CodeTTL = 0
	require.Error(t, bad.Validate())

	bad = valid
	bad.CodeRetention = -time.Second
	require.Error(t, bad.Validate())

	bad = valid
	bad.TrustedProxies = []string{"proxy.internal"}
	require.ErrorContains(t, bad.Validate(), "CODEGRANT_TRUSTED_PROXIES")
}

func TestStoreConfigSQLiteDSN(t *testing.T) {
	cfg := Config{StoreDriver: "sqlite", DatabaseFile: "/data/codegrant.db"}
	sc := cfg.StoreConfig()
	require.Equal(t, drivers.TypeSQLite, sc.Type)
	require.Contains(t, sc.SQLiteDSN, "file:/data/codegrant.db?")
	require.Contains(t, sc.SQLiteDSN, "busy_timeout(5000)")
}
