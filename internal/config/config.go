// Package config loads server configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config holds everything the server needs to run. All values come from
// environment variables; sensible defaults cover local development except the
// token signing key, which must always be provided.
type Config struct {
	Env     string `env:"ENV" envDefault:"DEV"`
	Port    string `env:"PORT" envDefault:"8080"`
	AppName string `env:"APP_NAME" envDefault:"AuthCore"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/authcore.db"`

	// Issuer is the value minted into the iss claim of access tokens and
	// verified on introspection.
	Issuer     string `env:"TOKEN_ISSUER" envDefault:"http://localhost:8080"`
	SigningKey string `env:"TOKEN_SIGNING_KEY"`

	FlowTTL     time.Duration `env:"FLOW_TTL" envDefault:"15m"`
	TokenExpiry time.Duration `env:"TOKEN_EXPIRY" envDefault:"1h"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "[config.Load] parse environment")
	}
	if cfg.SigningKey == "" {
		return Config{}, errors.New("[config.Load] TOKEN_SIGNING_KEY is required")
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// IsAllowedOrigin reports whether the origin may make cross-origin requests.
func (c Config) IsAllowedOrigin(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == origin || allowed == "*" {
			return true
		}
	}
	return false
}
