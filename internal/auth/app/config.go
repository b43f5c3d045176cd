package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/codegrant/pkg/httpx"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	StoreDriver    string // sqlite, redis or memory (default: sqlite)
	DatabaseFile   string // SQLite database file (default: ./codegrant.db)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string // (default: codegrant:)

	CodeTTL       time.Duration // Code validity window (default: 1h)
	CodeRetention time.Duration // How long spent and expired codes are kept (default: 24h)

	ClientsFile string // Optional: YAML client registry seeded at startup
	PepperFile  string // Optional: file holding the pepper for hashed client secrets
	IssuerToken string // Optional: bearer token for POST /v1/oauth2/codes, endpoint disabled when empty

	TrustedProxies []string // Addresses or CIDRs allowed to set X-Forwarded-For (default: none)

	UpstreamTokenURL     string // Optional: upstream password grant endpoint, authorize disabled when empty
	UpstreamClientID     string
	UpstreamClientSecret string
	UpstreamScopes       []string
}

func LoadConfig() Config {
	return Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		StoreDriver:    getEnvOrDefault("CODEGRANT_STORE_DRIVER", string(drivers.TypeSQLite)),
		DatabaseFile:   getEnvOrDefault("CODEGRANT_DATABASE_FILE", "codegrant.db"),
		RedisAddr:      getEnvOrDefault("CODEGRANT_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("CODEGRANT_REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("CODEGRANT_REDIS_DB", 0),
		RedisKeyPrefix: getEnvOrDefault("CODEGRANT_REDIS_KEY_PREFIX", "codegrant:"),

		CodeTTL:       getEnvDurationOrDefault("CODEGRANT_CODE_TTL", service.DefaultCodeTTL),
		CodeRetention: getEnvDurationOrDefault("CODEGRANT_CODE_RETENTION", service.DefaultCodeRetention),

		ClientsFile: os.Getenv("CODEGRANT_CLIENTS_FILE"),
		PepperFile:  os.Getenv("CODEGRANT_PEPPER_FILE"),
		IssuerToken: os.Getenv("CODEGRANT_ISSUER_TOKEN"),

		TrustedProxies: splitList(os.Getenv("CODEGRANT_TRUSTED_PROXIES")),

		UpstreamTokenURL:     os.Getenv("CODEGRANT_UPSTREAM_TOKEN_URL"),
		UpstreamClientID:     os.Getenv("CODEGRANT_UPSTREAM_CLIENT_ID"),
		UpstreamClientSecret: os.Getenv("CODEGRANT_UPSTREAM_CLIENT_SECRET"),
		UpstreamScopes:       splitList(os.Getenv("CODEGRANT_UPSTREAM_SCOPES")),
	}
}

// Validate rejects configurations the application cannot start with.
func (c Config) Validate() error {
	switch drivers.ParseType(c.StoreDriver) {
	case drivers.TypeSQLite, drivers.TypeRedis, drivers.TypeMemory:
	default:
		return fmt.Errorf("CODEGRANT_STORE_DRIVER: unsupported driver %q", c.StoreDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT: %d out of range", c.Port)
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("CODEGRANT_CODE_TTL must be positive")
	}
	if c.CodeRetention < 0 {
		return fmt.Errorf("CODEGRANT_CODE_RETENTION must not be negative")
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("CODEGRANT_TRUSTED_PROXIES: %w", err)
	}
	return nil
}

// StoreConfig translates the configuration into driver options.
func (c Config) StoreConfig() drivers.Config {
	return drivers.Config{
		Type:      drivers.ParseType(c.StoreDriver),
		SQLiteDSN: fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", c.DatabaseFile),
		Redis: redis.Config{
			Addr:      c.RedisAddr,
			Password:  c.RedisPassword,
			DB:        c.RedisDB,
			KeyPrefix: c.RedisKeyPrefix,
			Retention: c.CodeRetention,
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// e.g. "1h", "30m", "90s"
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

// splitList splits on commas and whitespace.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
