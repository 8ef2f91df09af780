package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the immutable process configuration, loaded once from the
// environment and injected into every component at construction.
type Config struct {
	Issuer         string // Issuer claim for access tokens
	SigningKeyPath string // Optional: path to a PKCS8 Ed25519 private key PEM; ephemeral key if unset

	RolePrefix  string // Prefix applied when converting scopes to roles (default: ROLE_)
	BaseRole    string // Role every authenticated bearer identity carries (default: ROLE_API)
	PreviewRole string // Role unlocking preview content (default: ROLE_PREVIEW)

	AccessTTL time.Duration // Access token lifetime (default: 1h)
	CodeTTL   time.Duration // Authorization code lifetime (default: 5m)

	// LoginURL is where unauthenticated authorize requests are sent. When
	// empty such requests are denied outright.
	LoginURL string

	CacheTTLMinutes    int      // Shared-cache TTL for cachable responses (default: 5)
	ClientCacheAllowed bool     // Expose the TTL to browsers via max-age (default: false)
	Locales            []string // Supported response locales, first is default (default: en)

	DatabaseFile         string        // Path to SQLite database file (default: ./gateway.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-code sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("GATEWAY_ISSUER", "apigate"),
		SigningKeyPath: os.Getenv("GATEWAY_SIGNING_KEY_PATH"),

		RolePrefix:  getEnvOrDefault("GATEWAY_ROLE_PREFIX", "ROLE_"),
		BaseRole:    getEnvOrDefault("GATEWAY_BASE_ROLE", "ROLE_API"),
		PreviewRole: getEnvOrDefault("GATEWAY_PREVIEW_ROLE", "ROLE_PREVIEW"),

		AccessTTL: getEnvDurationOrDefault("GATEWAY_ACCESS_TTL", time.Hour),
		CodeTTL:   getEnvDurationOrDefault("GATEWAY_CODE_TTL", 5*time.Minute),
		LoginURL:  os.Getenv("GATEWAY_LOGIN_URL"),

		CacheTTLMinutes:    getEnvIntOrDefault("GATEWAY_CACHE_TTL_MINUTES", 5),
		ClientCacheAllowed: getEnvBoolOrDefault("GATEWAY_CLIENT_CACHE_ALLOWED", false),
		Locales:            getEnvListOrDefault("GATEWAY_LOCALES", []string{"en"}),

		DatabaseFile:         getEnvOrDefault("GATEWAY_DATABASE_FILE", "gateway.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
