// Package config loads vocapp settings from an optional YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. Validate is separate from Load so callers decide when a bad
// setting is fatal.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sakif/vocapp/internal/apperror"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port     int         `yaml:"port"`
	LogLevel string      `yaml:"log_level"`
	Store    StoreConfig `yaml:"store"`
	Auth     AuthConfig  `yaml:"auth"`
	Gate     GateConfig  `yaml:"gate"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`         // sqlite
	DatabaseURL string `yaml:"database_url"` // postgres
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	GitHub    GitHubConfig  `yaml:"github"`
}

type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

// GateConfig bounds how long bootstrap waits on each phase.
type GateConfig struct {
	AuthTimeout        time.Duration `yaml:"auth_timeout"`
	ProfileLoadTimeout time.Duration `yaml:"profile_load_timeout"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Port:     8080,
		LogLevel: "info",
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "data/vocapp.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Gate: GateConfig{
			AuthTimeout:        10 * time.Second,
			ProfileLoadTimeout: 5 * time.Second,
		},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies
// environment overrides. A path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.Configuration("config", fmt.Sprintf("config file %s does not exist", path))
		}
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, apperror.Configuration("config", fmt.Sprintf("parsing %s: %v", path, err))
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Auth.GitHub.CallbackURL == "" {
		cfg.Auth.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return apperror.Configuration("PORT", fmt.Sprintf("invalid PORT value %q", v))
		}
		c.Port = port
	}

	overrides := map[string]*string{
		"DB_PATH":              &c.Store.Path,
		"STORE_DRIVER":         &c.Store.Driver,
		"DATABASE_URL":         &c.Store.DatabaseURL,
		"JWT_SECRET":           &c.Auth.JWTSecret,
		"GITHUB_CLIENT_ID":     &c.Auth.GitHub.ClientID,
		"GITHUB_CLIENT_SECRET": &c.Auth.GitHub.ClientSecret,
		"GITHUB_CALLBACK_URL":  &c.Auth.GitHub.CallbackURL,
		"LOG_LEVEL":            &c.LogLevel,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate reports the first unusable setting as a ConfigurationError.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return apperror.Configuration("port", fmt.Sprintf("port %d out of range", c.Port))
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return apperror.Configuration("store.path", "sqlite store needs a path")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return apperror.Configuration("store.database_url", "postgres store needs a database url")
		}
	case DriverMemory:
	default:
		return apperror.Configuration("store.driver", fmt.Sprintf("unknown store driver %q", c.Store.Driver))
	}
	if c.Gate.AuthTimeout <= 0 {
		return apperror.Configuration("gate.auth_timeout", "auth timeout must be positive")
	}
	if c.Gate.ProfileLoadTimeout <= 0 {
		return apperror.Configuration("gate.profile_load_timeout", "profile load timeout must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return apperror.Configuration("auth.token_ttl", "token ttl must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return slog.LevelInfo, apperror.Configuration("log_level", fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	return level, nil
}

// AuthEnabled reports whether session tokens can be issued.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.AuthEnabled() && c.Auth.GitHub.ClientID != "" && c.Auth.GitHub.ClientSecret != ""
}
