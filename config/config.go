// Package config loads process configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingSecret is returned when a required signing secret is not set.
// It is fatal: the process must not start without both secrets.
var ErrMissingSecret = errors.New("configuration error: signing secret is not set")

// Config is the complete process configuration.
type Config struct {
	Port     int
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
}

// DatabaseConfig selects and tunes the relational store.
type DatabaseConfig struct {
	Driver       string
	DSN          string
	StoreTimeout time.Duration
}

// AuthConfig holds token and credential settings.
type AuthConfig struct {
	AccessSecret       string
	RefreshSecret      string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	Issuer             string
	PasswordMinLength  int
	PasswordMaxLength  int
	UniformLoginErrors bool
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	v.SetDefault("port", 3000)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "forum28.db")
	v.SetDefault("database.store_timeout", "5s")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "7d")
	v.SetDefault("auth.issuer", "forum28")
	v.SetDefault("auth.password_min_length", 1)
	v.SetDefault("auth.password_max_length", 0)
	v.SetDefault("auth.uniform_login_errors", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	bindings := map[string]string{
		"port":                      "PORT",
		"database.driver":           "DB_DRIVER",
		"database.dsn":              "DATABASE_URL",
		"database.store_timeout":    "STORE_TIMEOUT",
		"auth.access_secret":        "FORUM28_ACCESS_TOKEN_SECRET",
		"auth.refresh_secret":       "FORUM28_REFRESH_TOKEN_SECRET",
		"auth.access_ttl":           "ACCESS_TOKEN_EXPIRE",
		"auth.refresh_ttl":          "REFRESH_TOKEN_EXPIRE",
		"auth.issuer":               "JWT_ISSUER",
		"auth.password_min_length":  "PASSWORD_MIN_LENGTH",
		"auth.password_max_length":  "PASSWORD_MAX_LENGTH",
		"auth.uniform_login_errors": "AUTH_UNIFORM_LOGIN_ERRORS",
		"log.level":                 "LOG_LEVEL",
		"log.format":                "LOG_FORMAT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Port: v.GetInt("port"),
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		Auth: AuthConfig{
			AccessSecret:       v.GetString("auth.access_secret"),
			RefreshSecret:      v.GetString("auth.refresh_secret"),
			Issuer:             v.GetString("auth.issuer"),
			PasswordMinLength:  v.GetInt("auth.password_min_length"),
			PasswordMaxLength:  v.GetInt("auth.password_max_length"),
			UniformLoginErrors: v.GetBool("auth.uniform_login_errors"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	var err error
	if cfg.Auth.AccessTTL, err = ParseTTL(v.GetString("auth.access_ttl")); err != nil {
		return nil, fmt.Errorf("configuration error: ACCESS_TOKEN_EXPIRE: %w", err)
	}
	if cfg.Auth.RefreshTTL, err = ParseTTL(v.GetString("auth.refresh_ttl")); err != nil {
		return nil, fmt.Errorf("configuration error: REFRESH_TOKEN_EXPIRE: %w", err)
	}
	if cfg.Database.StoreTimeout, err = ParseTTL(v.GetString("database.store_timeout")); err != nil {
		return nil, fmt.Errorf("configuration error: STORE_TIMEOUT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that must hold before the process serves traffic.
func (c *Config) Validate() error {
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("%w: FORUM28_ACCESS_TOKEN_SECRET", ErrMissingSecret)
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("%w: FORUM28_REFRESH_TOKEN_SECRET", ErrMissingSecret)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("configuration error: invalid PORT %d", c.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("configuration error: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Auth.PasswordMinLength < 0 || c.Auth.PasswordMaxLength < 0 {
		return fmt.Errorf("configuration error: password length limits must not be negative")
	}
	if c.Auth.PasswordMaxLength > 0 && c.Auth.PasswordMaxLength < c.Auth.PasswordMinLength {
		return fmt.Errorf("configuration error: PASSWORD_MAX_LENGTH is below PASSWORD_MIN_LENGTH")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
