package config

import (
	"time"

	"github.com/phrazzld/omniprompt/internal/domain"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Provider   ProviderConfig   `mapstructure:"provider"   validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
//
// AccessTokenHash is the bcrypt hash of the shared access token that
// clients exchange for a JWT at POST /api/auth/token. The plaintext
// token is never stored.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	AccessTokenHash      string `mapstructure:"access_token_hash"      validate:"required"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// ProviderConfig contains the default LLM provider settings for runs.
// Individual runs may override the model, template, and sampling knobs,
// but the API key and base URL always come from configuration.
type ProviderConfig struct {
	Name           string  `mapstructure:"name"            validate:"required,oneof=openai deepseek gemini"`
	Model          string  `mapstructure:"model"           validate:"required"`
	APIKey         string  `mapstructure:"api_key"         validate:"required"`
	BaseURL        string  `mapstructure:"base_url"        validate:"omitempty,url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	DelayMillis    int     `mapstructure:"delay_millis"    validate:"gte=0"`
	Streaming      bool    `mapstructure:"streaming"`
	MaxRetries     int     `mapstructure:"max_retries"     validate:"gte=0,lte=10"`
	Temperature    float32 `mapstructure:"temperature"     validate:"gte=0,lte=2"`
	MaxTokens      int     `mapstructure:"max_tokens"      validate:"required,gt=0"`
}

// GenerationConfig contains batch execution settings.
type GenerationConfig struct {
	Workers         int    `mapstructure:"workers"          validate:"required,gt=0,lte=32"`
	TemplateLibrary string `mapstructure:"template_library"`
}

// Settings converts the provider configuration into the immutable
// per-run settings value used by the generation pipeline.
func (p ProviderConfig) Settings() domain.ProviderSettings {
	return domain.ProviderSettings{
		Provider:    p.Name,
		Model:       p.Model,
		APIKey:      p.APIKey,
		BaseURL:     p.BaseURL,
		Timeout:     time.Duration(p.TimeoutSeconds) * time.Second,
		Delay:       time.Duration(p.DelayMillis) * time.Millisecond,
		Streaming:   p.Streaming,
		MaxRetries:  p.MaxRetries,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}
