package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Optional YAML file in the working directory; environment variables
	// (OMNIPROMPT_SERVER_PORT, OMNIPROMPT_PROVIDER_API_KEY, ...) override it.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OMNIPROMPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment variables may be enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every known key so that
// viper.AutomaticEnv can resolve each of them from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_hash", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("provider.name", "openai")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.timeout_seconds", 20)
	v.SetDefault("provider.delay_millis", 1000)
	v.SetDefault("provider.streaming", false)
	v.SetDefault("provider.max_retries", 0)
	v.SetDefault("provider.temperature", 0.5)
	v.SetDefault("provider.max_tokens", 200)

	v.SetDefault("generation.workers", 1)
	v.SetDefault("generation.template_library", "templates.txt")
}
