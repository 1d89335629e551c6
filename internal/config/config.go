// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the server. Struct tags carry both the
// variable name and its default, so the zero-configuration development
// setup just works.
//
// slog.Level implements encoding.TextUnmarshaler, so LOG_LEVEL accepts
// "debug", "info", "warn", or "error" directly.
type Config struct {
	Port         int        `env:"PORT" envDefault:"8080"`
	DBPath       string     `env:"DB_PATH" envDefault:"data/exchange.db"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	BcryptCost   int        `env:"BCRYPT_COST" envDefault:"12"`
	NotifyBuffer int        `env:"NOTIFY_BUFFER" envDefault:"64"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}
