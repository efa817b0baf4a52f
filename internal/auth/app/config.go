package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Rate limit backends
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

type Config struct {
	Issuer string // Optional: issuer claim for tokens (default: taskflow-auth)

	Algorithm      string        // Optional: JWT signing algorithm (HS256, EdDSA) (default: HS256)
	Secret         string        // Required for HS256: ACCESS_TOKEN_SECRET, at least 32 bytes
	SigningKeyFile string        // Optional: Ed25519 key file for EdDSA; generated when missing, ephemeral when empty
	AccessTTL      time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL     time.Duration // Optional: refresh token lifetime (default: 168h)
	ResetTTL       time.Duration // Optional: password reset link lifetime (default: 1h)

	DBDriver     string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	DatabaseURL  string // Required for postgres

	PepperFile        string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	PasswordAlgorithm string // Optional: argon2id or bcrypt (default: argon2id)
	PasswordCost      int    // Optional: argon2id time cost or bcrypt cost (default: per algorithm)

	ClientURL string // Optional: browser client origin; reset links and CORS (default: http://localhost:5173)
	SeedDemo  bool   // Optional: create the demo account on startup

	RateLimitBackend string // Optional: memory or redis (default: memory)
	RedisURL         string // Required for redis rate limiting

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 3001)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "taskflow-auth"),
		Algorithm:      getEnvOrDefault("AUTH_ALGORITHM", jwtx.AlgorithmHS256),
		Secret:         os.Getenv("ACCESS_TOKEN_SECRET"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		AccessTTL:      getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:     getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		ResetTTL:       getEnvDurationOrDefault("RESET_TOKEN_TTL", time.Hour),

		DBDriver:     strings.ToLower(getEnvOrDefault("AUTH_DB_DRIVER", DriverSQLite)),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		PepperFile:        getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		PasswordAlgorithm: getEnvOrDefault("PASSWORD_ALGORITHM", cryptox.PasswordArgon2id),
		PasswordCost:      getEnvIntOrDefault("PASSWORD_COST", 0),

		ClientURL: strings.TrimSuffix(getEnvOrDefault("CLIENT_URL", "http://localhost:5173"), "/"),
		SeedDemo:  getEnvBoolOrDefault("AUTH_SEED_DEMO", false),

		RateLimitBackend: strings.ToLower(getEnvOrDefault("RATELIMIT_BACKEND", RateLimitMemory)),
		RedisURL:         os.Getenv("REDIS_URL"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 3001),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Algorithm {
	case jwtx.AlgorithmHS256:
		if len(c.Secret) < jwtx.MinHS256SecretLength {
			errs = append(errs, fmt.Errorf("ACCESS_TOKEN_SECRET must be at least %d bytes for HS256", jwtx.MinHS256SecretLength))
		}
	case jwtx.AlgorithmEdDSA:
	default:
		errs = append(errs, fmt.Errorf("AUTH_ALGORITHM %q is not supported (HS256, EdDSA)", c.Algorithm))
	}

	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_DB_DRIVER %q is not supported (sqlite, postgres)", c.DBDriver))
	}

	switch c.RateLimitBackend {
	case RateLimitMemory:
	case RateLimitRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis rate limit backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATELIMIT_BACKEND %q is not supported (memory, redis)", c.RateLimitBackend))
	}

	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.ResetTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL"))
	}

	return errors.Join(errs...)
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

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
