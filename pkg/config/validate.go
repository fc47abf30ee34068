package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case "development", "production":
		// valid
	default:
		errs = append(errs, fmt.Errorf("environment must be \"development\" or \"production\", got %q", c.Environment))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn (DATABASE_URL) is required when storage.type is \"postgres\""))
		}
	}

	// The development fallback secret must be impossible to run in production.
	if c.Environment == "production" && c.Auth.Secret == DevelopmentSecret {
		errs = append(errs, fmt.Errorf("auth.secret (JWT_SECRET) is required in production; the development fallback is not allowed"))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0, got %v", c.Auth.TokenTTL))
	}

	return errors.Join(errs...)
}
