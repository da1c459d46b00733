// Package config loads moodbuddy settings from the environment and sets up
// logging for the CLI and any embedding application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration.
// Environment variables are parsed with the MOODBUDDY_ prefix, for example
// MOODBUDDY_SERVICE_URL or MOODBUDDY_STATS_WINDOW_DAYS.
type Config struct {
	ServiceURL      string        `envconfig:"SERVICE_URL" default:"http://localhost:5000/api"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	StatsWindowDays int           `envconfig:"STATS_WINDOW_DAYS" default:"30"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	TokenFile       string        `envconfig:"TOKEN_FILE"`
	Debug           bool          `envconfig:"DEBUG" default:"false"`
	TimeZone        string        `envconfig:"TIMEZONE"`
}

// Load reads the configuration from the environment and fills derived values.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("MOODBUDDY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveDefaults validates the loaded values and derives the token file path
// when none was given.
func (c *Config) ResolveDefaults() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service url is required")
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
	if c.StatsWindowDays <= 0 {
		return fmt.Errorf("stats window must be > 0 days, got %d", c.StatsWindowDays)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve token file: %w", err)
		}
		c.TokenFile = filepath.Join(home, ".moodbuddy", "token")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone used for calendar-day computations.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() zerolog.Level {
	if c.Debug {
		return zerolog.DebugLevel
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init initializes logging and reports the effective configuration.
func (c *Config) Init() {
	InitLogger()
	SetLogLevel(c.Level())

	log.Debug().
		Str("service_url", c.ServiceURL).
		Int("stats_window_days", c.StatsWindowDays).
		Dur("http_timeout", c.HTTPTimeout).
		Str("token_file", c.TokenFile).
		Str("log_level", c.Level().String()).
		Msg("configuration loaded")
}
