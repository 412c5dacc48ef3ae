// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.ciril/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: chat model, embedder model, generation limits
//   - Storage: PostgreSQL connection (see storage.go)
//   - Auth: admin credentials and JWT signing secret
//   - Server: listen address, CORS origins, proxy trust, rate limiting
//
// Security: secrets (password hash, JWT secret) are never logged; validation
// is fail-fast with sentinel errors usable via errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the chat model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrMissingJWTSecret indicates the JWT signing secret is not set.
	ErrMissingJWTSecret = errors.New("missing JWT secret")

	// ErrInvalidJWTSecret indicates the JWT signing secret is too short.
	ErrInvalidJWTSecret = errors.New("invalid JWT secret")

	// ErrMissingAdminCredentials indicates admin email or password hash is unset.
	ErrMissingAdminCredentials = errors.New("missing admin credentials")

	// ErrInvalidEnvironment indicates an unknown deployment environment name.
	ErrInvalidEnvironment = errors.New("invalid environment")
)

const (
	// DefaultChatModel is the default Gemini chat model.
	DefaultChatModel = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality. Our pgvector schema uses
	// 768 dimensions; see knowledge.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// minJWTSecretLength is the minimum byte length for the JWT signing secret.
	minJWTSecretLength = 32
)

// Config stores application configuration.
// SECURITY: sensitive fields must never be logged or serialized.
type Config struct {
	// AI configuration
	ChatModel     string  `mapstructure:"chat_model"`
	EmbedderModel string  `mapstructure:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`

	// Retrieval configuration
	RetrievalTopK int `mapstructure:"retrieval_top_k"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Admin auth configuration
	AdminEmail        string `mapstructure:"admin_email"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"` // SENSITIVE: bcrypt hash
	JWTSecret         string `mapstructure:"jwt_secret"`          // SENSITIVE

	// Server configuration
	Environment string   `mapstructure:"environment"` // dev, staging, or production
	ListenAddr  string   `mapstructure:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst"`

	// Observability configuration
	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AgentHost   string `mapstructure:"agent_host"` // OTLP HTTP endpoint, e.g. "localhost:4318"
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ciril")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has the highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults. Temperature is deliberately low: the assistant must stick
	// to profile facts rather than improvise.
	viper.SetDefault("chat_model", DefaultChatModel)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("temperature", 0.3)
	viper.SetDefault("max_tokens", 500)

	viper.SetDefault("retrieval_top_k", 3)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "ciril")
	viper.SetDefault("postgres_password", "ciril_dev_password")
	viper.SetDefault("postgres_db_name", "ciril")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	viper.SetDefault("environment", "dev")
	viper.SetDefault("listen_addr", "localhost:8000")
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 60)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.agent_host", "localhost:4318")
	viper.SetDefault("tracing.service_name", "ciril")
	viper.SetDefault("tracing.environment", "dev")
}

// IsProduction reports whether the service runs in the production
// environment. Production enables HSTS and other hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// bindEnvVariables binds sensitive environment variables explicitly.
// GEMINI_API_KEY is read directly by the genai client, not via Viper;
// its presence is checked in Validate().
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("environment", "CIRIL_ENV")
	mustBind("jwt_secret", "JWT_SECRET")
	mustBind("admin_email", "CIRIL_ADMIN_EMAIL")
	mustBind("admin_password_hash", "CIRIL_ADMIN_PASSWORD_HASH")
	mustBind("cors_origins", "CIRIL_CORS_ORIGINS")
	mustBind("trust_proxy", "CIRIL_TRUST_PROXY")
	mustBind("listen_addr", "CIRIL_LISTEN_ADDR")
	mustBind("chat_model", "CIRIL_CHAT_MODEL")
	mustBind("rate_burst", "CIRIL_RATE_BURST")
}
