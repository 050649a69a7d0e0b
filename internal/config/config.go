// Package config provides configuration management for the mail spool daemons.
package config

import (
	"errors"
	"fmt"
	"time"
)

// FileConfig is the top-level wrapper for the shared configuration file.
// smtpd and pop3d read the same file: [server] holds shared settings,
// [smtpd] and [pop3d] hold the per-daemon settings.
type FileConfig struct {
	Server ServerConfig `toml:"server"`
	Smtpd  SMTPConfig   `toml:"smtpd"`
	Pop3d  POP3Config   `toml:"pop3d"`
}

// ServerConfig holds settings shared by both daemons.
type ServerConfig struct {
	Hostname string         `toml:"hostname"`
	Spool    string         `toml:"spool"`
	LogLevel string         `toml:"log_level"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
	Limits   LimitsConfig   `toml:"limits"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// SMTPConfig holds the smtpd-specific configuration.
type SMTPConfig struct {
	Listeners []string `toml:"listeners"`
}

// POP3Config holds the pop3d-specific configuration.
type POP3Config struct {
	Listeners []string   `toml:"listeners"`
	Auth      AuthConfig `toml:"auth"`
}

// AuthConfig holds the single credential pair accepted by pop3d.
// PasswordHash, when set, takes precedence over Password and must be a
// bcrypt hash of the password.
type AuthConfig struct {
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
}

// TimeoutsConfig defines timeout durations as parseable strings.
// A value of "0" disables the corresponding timeout.
type TimeoutsConfig struct {
	Command string `toml:"command"`
	Idle    string `toml:"idle"`
}

// LimitsConfig defines resource limits for the daemons.
type LimitsConfig struct {
	MaxConnections int `toml:"max_connections"`
}

// MetricsConfig holds configuration for the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// Config is the resolved configuration handed to daemon constructors.
type Config struct {
	Hostname string
	Spool    string
	LogLevel string
	Timeouts TimeoutsConfig
	Limits   LimitsConfig
	Metrics  MetricsConfig
	SMTP     SMTPConfig
	POP3     POP3Config
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		Hostname: "localhost",
		Spool:    "./mailbox",
		LogLevel: "info",
		Timeouts: TimeoutsConfig{
			Command: "5m",
			Idle:    "30m",
		},
		Limits: LimitsConfig{
			MaxConnections: 100,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9180",
			Path:    "/metrics",
		},
		SMTP: SMTPConfig{
			Listeners: []string{":2525"},
		},
		POP3: POP3Config{
			Listeners: []string{":1100"},
			Auth: AuthConfig{
				Username: "user",
				Password: "pass",
			},
		},
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}

	if c.Spool == "" {
		return errors.New("spool directory is required")
	}

	if len(c.SMTP.Listeners) == 0 {
		return errors.New("at least one smtpd listener is required")
	}
	for i, addr := range c.SMTP.Listeners {
		if addr == "" {
			return fmt.Errorf("smtpd listener %d: address is required", i)
		}
	}

	if len(c.POP3.Listeners) == 0 {
		return errors.New("at least one pop3d listener is required")
	}
	for i, addr := range c.POP3.Listeners {
		if addr == "" {
			return fmt.Errorf("pop3d listener %d: address is required", i)
		}
	}

	if c.POP3.Auth.Username == "" {
		return errors.New("pop3d auth username is required")
	}
	if c.POP3.Auth.Password == "" && c.POP3.Auth.PasswordHash == "" {
		return errors.New("pop3d auth password or password_hash is required")
	}

	if c.Limits.MaxConnections <= 0 {
		return errors.New("max_connections must be positive")
	}

	if c.Timeouts.Command != "" {
		if _, err := time.ParseDuration(c.Timeouts.Command); err != nil {
			return fmt.Errorf("invalid command timeout: %w", err)
		}
	}

	if c.Timeouts.Idle != "" {
		if _, err := time.ParseDuration(c.Timeouts.Idle); err != nil {
			return fmt.Errorf("invalid idle timeout: %w", err)
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return errors.New("metrics address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}

	return nil
}

// CommandTimeout returns the command timeout as a time.Duration.
// Returns 5 minutes if not configured or invalid; "0" disables the timeout.
func (c *TimeoutsConfig) CommandTimeout() time.Duration {
	if c.Command == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(c.Command)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// IdleTimeout returns the idle timeout as a time.Duration.
// Returns 30 minutes if not configured or invalid; "0" disables the timeout.
func (c *TimeoutsConfig) IdleTimeout() time.Duration {
	if c.Idle == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(c.Idle)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}
