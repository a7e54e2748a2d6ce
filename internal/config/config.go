// Package config reads server settings from the environment. Command-line
// flags in cmd/najdeno take precedence over these values.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings.
type Config struct {
	DBPath     string `env:"NAJDENO_DB"          envDefault:"najdeno.sqlite3"`
	Addr       string `env:"NAJDENO_ADDR"        envDefault:":8080"`
	LogPath    string `env:"NAJDENO_LOG"`
	AdminEmail string `env:"NAJDENO_ADMIN_EMAIL" envDefault:"admin@najdeno.local"`

	// PublicURL prefixes uploaded image URLs. Empty means relative URLs.
	PublicURL string `env:"NAJDENO_PUBLIC_URL"`

	// RequireOpenItem rejects claims on items that are no longer OPEN.
	RequireOpenItem bool `env:"NAJDENO_REQUIRE_OPEN_ITEM" envDefault:"true"`

	// MatchCacheTTL is how long match suggestions are cached. Zero disables
	// the cache.
	MatchCacheTTL time.Duration `env:"NAJDENO_MATCH_CACHE_TTL" envDefault:"1m"`

	// LoginRate is the number of login and register attempts allowed per
	// client address per minute.
	LoginRate int `env:"NAJDENO_LOGIN_RATE" envDefault:"10"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LoginRate < 0 {
		return nil, fmt.Errorf("NAJDENO_LOGIN_RATE must not be negative")
	}
	if cfg.MatchCacheTTL < 0 {
		return nil, fmt.Errorf("NAJDENO_MATCH_CACHE_TTL must not be negative")
	}
	return cfg, nil
}
