// ABOUTME: Configuration loader for the respondent home service
// ABOUTME: Loads settings from environment variables with defaults

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port         string
	CookieSecure bool          // Set Secure flag on the session cookie (default: true)
	SessionTTL   time.Duration // idle timeout for server-side sessions (default: 45m)

	// Case service (RHSvc)
	RHSvcURL      string `validate:"required,url"`
	RHSvcAuthUser string
	RHSvcAuthPass string

	// Address index
	AddressIndexURL      string `validate:"required,url"`
	AddressIndexCacheTTL time.Duration

	// EQ launch
	EQURL             string `validate:"required,url"`
	EQTokenSecret     string `validate:"required"`
	EQTokenTTL        time.Duration
	AccountServiceURL string `validate:"required,url"`
	URLPathPrefix     string

	// Redis session store (optional; in-memory store when unset)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// RedisConfigured reports whether sessions should be persisted in Redis.
func (c *Config) RedisConfigured() bool {
	return c.RedisAddr != ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load() (*Config, error) {
	// Best-effort .env for local development; real deployments set
	// the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "9092"),
		CookieSecure: getEnvBool("COOKIE_SECURE", true),
		SessionTTL:   time.Duration(getEnvInt("SESSION_TTL_MINUTES", 45)) * time.Minute,

		RHSvcURL:      ensureScheme(os.Getenv("RHSVC_URL")),
		RHSvcAuthUser: os.Getenv("RHSVC_AUTH_USER"),
		RHSvcAuthPass: os.Getenv("RHSVC_AUTH_PASS"),

		AddressIndexURL:      ensureScheme(os.Getenv("ADDRESS_INDEX_URL")),
		AddressIndexCacheTTL: time.Duration(getEnvInt("ADDRESS_INDEX_CACHE_TTL", 300)) * time.Second,

		EQURL:             ensureScheme(os.Getenv("EQ_URL")),
		EQTokenSecret:     os.Getenv("EQ_TOKEN_SECRET"),
		EQTokenTTL:        time.Duration(getEnvInt("EQ_TOKEN_TTL", 600)) * time.Second,
		AccountServiceURL: ensureScheme(os.Getenv("ACCOUNT_SERVICE_URL")),
		URLPathPrefix:     os.Getenv("URL_PATH_PREFIX"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}

	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid configuration: %s failed %q check", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.SessionTTL < time.Minute {
		return nil, fmt.Errorf("SESSION_TTL_MINUTES must be at least 1, got %s", cfg.SessionTTL)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
