// Package config loads and validates application configuration from the
// environment. Each concern has its own file; AppConfig composes them.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig is the root configuration for the gateway.
type AppConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Auth     AuthConfig
	Token    TokenConfig
	HTTP     HTTPConfig
	Routes   RoutesConfig
	Database DBConfig
	Redis    RedisConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present (development convenience); real
// environment variables win.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Sanitize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sanitize validates and normalizes the loaded configuration.
func (c *AppConfig) Sanitize() error {
	if err := c.Auth.Sanitize(); err != nil {
		return err
	}
	if err := c.Token.Sanitize(); err != nil {
		return err
	}
	if err := c.HTTP.Sanitize(); err != nil {
		return err
	}
	if err := c.Routes.Sanitize(); err != nil {
		return err
	}
	return nil
}
