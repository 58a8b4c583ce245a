// Package bootstrap wires configuration, storage, and services into a
// runnable gateway.
package bootstrap

import (
	"log/slog"
	"os"
	"strings"

	"github.com/casgate/casgate/config"
)

// InitLogger initializes the structured logger and installs it as default.
func InitLogger(level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads and validates configuration from the environment.
func LoadConfig() (*config.AppConfig, error) {
	return config.Load()
}
