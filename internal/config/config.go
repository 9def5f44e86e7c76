// Package config loads process configuration from the environment once at
// startup. Secrets that the server cannot run without are validated here so
// that a bad deployment fails before it accepts traffic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/fieldcrypt"
)

// MinJWTSecretLength is the minimum accepted size of JWT_SECRET in bytes.
const MinJWTSecretLength = 32

// Config holds the resolved process configuration.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	// EncryptionKey is the validated, still encoded, field encryption key.
	EncryptionKey string

	JWTSecret       []byte
	JWTAccessTTL    time.Duration
	JWTRefreshTTL   time.Duration
	AutoMigrate     bool
	TrustProxy      bool
	ShutdownTimeout time.Duration
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads and validates the configuration.
//
// Required:
//   - DATABASE_URL
//   - ENCRYPTION_KEY (32 bytes of URL-safe base64)
//   - JWT_SECRET (at least 32 bytes)
//
// Optional (default):
//   - PORT (8080), ENV (development)
//   - JWT_ACCESS_TTL (60m), JWT_REFRESH_TTL (168h)
//   - AUTO_MIGRATE (true), TRUST_PROXY (false)
//
// A missing or malformed key is returned as an error; callers are expected to
// treat it as fatal. No substitute key is ever generated.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:            getenvDefault(getenv, "PORT", "8080"),
		Env:             getenvDefault(getenv, "ENV", "development"),
		DatabaseURL:     getenv("DATABASE_URL"),
		EncryptionKey:   strings.TrimSpace(getenv("ENCRYPTION_KEY")),
		JWTSecret:       []byte(getenv("JWT_SECRET")),
		ShutdownTimeout: 10 * time.Second,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	if _, err := fieldcrypt.ParseKey(cfg.EncryptionKey); err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength)
	}

	var err error
	if cfg.JWTAccessTTL, err = durationEnv(getenv, "JWT_ACCESS_TTL", 60*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshTTL, err = durationEnv(getenv, "JWT_REFRESH_TTL", 168*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate, err = boolEnv(getenv, "AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = boolEnv(getenv, "TRUST_PROXY", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration (e.g. 60m): %q", key, raw)
	}
	return d, nil
}

func boolEnv(getenv func(string) string, key string, def bool) (bool, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %q", key, raw)
	}
	return b, nil
}
