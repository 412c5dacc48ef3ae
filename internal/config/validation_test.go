package config

import (
	"errors"
	"testing"
)

// validConfig returns a configuration that passes Validate().
func validConfig() *Config {
	return &Config{
		ChatModel:       DefaultChatModel,
		EmbedderModel:   DefaultEmbedderModel,
		Temperature:     0.3,
		MaxTokens:       500,
		RetrievalTopK:   3,
		PostgresHost:    "localhost",
		PostgresPort:    5432,
		PostgresUser:    "ciril",
		PostgresDBName:  "ciril",
		PostgresSSLMode: "disable",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty chat model", func(c *Config) { c.ChatModel = "" }, ErrInvalidModelName},
		{"empty embedder model", func(c *Config) { c.EmbedderModel = " " }, ErrInvalidEmbedderModel},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"empty postgres host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"bad ssl mode", func(c *Config) { c.PostgresSSLMode = "yes" }, ErrInvalidPostgresSSLMode},
		{"unknown environment", func(c *Config) { c.Environment = "prod" }, ErrInvalidEnvironment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	cfg := validConfig()
	if cfg.IsProduction() {
		t.Error("empty environment treated as production")
	}

	cfg.Environment = "dev"
	if cfg.IsProduction() {
		t.Error("dev treated as production")
	}

	cfg.Environment = "production"
	if !cfg.IsProduction() {
		t.Error("production environment not detected")
	}
}

func TestValidateServe_RequiresSecrets(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg := validConfig()
	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Errorf("ValidateServe() without JWT secret = %v, want %v", err, ErrMissingJWTSecret)
	}

	cfg.JWTSecret = "short"
	if err := cfg.ValidateServe(); !errors.Is(err, ErrInvalidJWTSecret) {
		t.Errorf("ValidateServe() with short secret = %v, want %v", err, ErrInvalidJWTSecret)
	}

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingAdminCredentials) {
		t.Errorf("ValidateServe() without admin creds = %v, want %v", err, ErrMissingAdminCredentials)
	}

	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	if err := cfg.ValidateServe(); err != nil {
		t.Errorf("ValidateServe() on complete config: %v", err)
	}
}

func TestValidateServe_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := validConfig()
	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"

	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("ValidateServe() without API key = %v, want %v", err, ErrMissingAPIKey)
	}
}
