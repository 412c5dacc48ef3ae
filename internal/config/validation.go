package config

import (
	"fmt"
	"os"
	"strings"
)

// validEnvironments are the accepted deployment environment names.
var validEnvironments = map[string]struct{}{
	"dev":        {},
	"staging":    {},
	"production": {},
}

// validSSLModes are the PostgreSQL sslmode values accepted by pgx.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Validate checks all configuration values and returns the first problem found.
// Called from Load() for fail-fast behavior at startup.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.ChatModel) == "" {
		return fmt.Errorf("%w: chat model must not be empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v not in [0, 2]", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 65536 {
		return fmt.Errorf("%w: %d not in [1, 65536]", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d not in [1, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	// Empty means dev; anything else must be a known environment.
	if c.Environment != "" {
		if _, ok := validEnvironments[c.Environment]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidEnvironment, c.Environment)
		}
	}

	return nil
}

// ValidateServe checks additional requirements for running the HTTP server:
// the Gemini API key, JWT secret, and admin credentials must be present.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", ErrMissingAPIKey)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("%w: set JWT_SECRET environment variable", ErrMissingJWTSecret)
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("%w: must be at least %d bytes", ErrInvalidJWTSecret, minJWTSecretLength)
	}

	if c.AdminEmail == "" || c.AdminPasswordHash == "" {
		return fmt.Errorf("%w: set CIRIL_ADMIN_EMAIL and CIRIL_ADMIN_PASSWORD_HASH", ErrMissingAdminCredentials)
	}

	return nil
}
