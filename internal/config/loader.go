// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Process envconfig struct tags to populate Config.
//  4. Cross-validate fields that depend on each other.
//  5. Validate the struct using go-playground/validator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is a diagnostic error type returned by Load to aid
// debugging. Field names the value that failed.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load loads and validates the full configuration from the environment.
// Used by the proxy, which needs the upstream credentials and the origin
// allow-list present.
func Load() (*Config, error) {
	cfg, err := loadEnv()
	if err != nil {
		return nil, err
	}

	if err := crossValidate(cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{Field: "struct", Message: "validation failed", Err: err}
	}

	return cfg, nil
}

// LoadBroadcast loads the configuration for the broadcast pipeline only.
// The proxy-side required fields (upstream URL, API key, allowed origins)
// are not enforced; a terminal broadcast needs none of them.
func LoadBroadcast() (*Config, error) {
	cfg, err := loadEnv()
	if err != nil {
		return nil, err
	}

	if cfg.Broadcast.BufferMin >= cfg.Broadcast.BufferMax {
		return nil, &ConfigError{
			Field:   "BUFFER_MIN",
			Message: fmt.Sprintf("must be strictly below BUFFER_MAX (%d >= %d)", cfg.Broadcast.BufferMin, cfg.Broadcast.BufferMax),
		}
	}

	if err := validator.New().Struct(cfg.Broadcast); err != nil {
		return nil, &ConfigError{Field: "broadcast", Message: "validation failed", Err: err}
	}

	return cfg, nil
}

// loadEnv runs the shared part of the loading sequence: UTC enforcement,
// .env loading, and envconfig processing.
func loadEnv() (*Config, error) {
	// Enforce UTC; every timestamp comparison in the warning machinery
	// assumes a single zone.
	time.Local = time.UTC

	// Non-fatal if missing; never overrides existing env vars.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{Field: "environment", Message: "processing env vars", Err: err}
	}
	return &cfg, nil
}

// crossValidate enforces constraints spanning multiple fields that struct
// tags cannot express.
func crossValidate(cfg *Config) error {
	if cfg.Broadcast.BufferMin >= cfg.Broadcast.BufferMax {
		return &ConfigError{
			Field:   "BUFFER_MIN",
			Message: fmt.Sprintf("must be strictly below BUFFER_MAX (%d >= %d)", cfg.Broadcast.BufferMin, cfg.Broadcast.BufferMax),
		}
	}
	if cfg.RateLimit.Driver == "postgres" && cfg.RateLimit.DatabaseURL.Unmask() == "" {
		return &ConfigError{
			Field:   "RATE_LIMIT_DATABASE_URL",
			Message: "required when RATE_LIMIT_DRIVER=postgres",
		}
	}
	return nil
}
