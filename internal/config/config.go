// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr   string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath     string        `env:"DB_PATH" envDefault:"data/geogamer.db"`
	LogLevel   slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir     string        `env:"SPA_DIR" envDefault:"../web/dist"`
	AssetsDir  string        `env:"ASSETS_DIR" envDefault:"public/images"`
	PublicURL  string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file, then parses the environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

func LoadFrom(dotenv string) (*Config, error) {
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", dotenv, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return &cfg, nil
}
