package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Hostname != "localhost" {
		t.Errorf("expected hostname 'localhost', got %q", cfg.Hostname)
	}

	if cfg.Spool != "./mailbox" {
		t.Errorf("expected spool './mailbox', got %q", cfg.Spool)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level 'info', got %q", cfg.LogLevel)
	}

	if len(cfg.SMTP.Listeners) != 1 || cfg.SMTP.Listeners[0] != ":2525" {
		t.Errorf("expected smtpd listener ':2525', got %v", cfg.SMTP.Listeners)
	}

	if len(cfg.POP3.Listeners) != 1 || cfg.POP3.Listeners[0] != ":1100" {
		t.Errorf("expected pop3d listener ':1100', got %v", cfg.POP3.Listeners)
	}

	if cfg.POP3.Auth.Username != "user" {
		t.Errorf("expected auth username 'user', got %q", cfg.POP3.Auth.Username)
	}

	if cfg.Limits.MaxConnections != 100 {
		t.Errorf("expected max_connections 100, got %d", cfg.Limits.MaxConnections)
	}

	if cfg.Timeouts.Command != "5m" {
		t.Errorf("expected command timeout '5m', got %q", cfg.Timeouts.Command)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing hostname",
			modify:  func(c *Config) { c.Hostname = "" },
			wantErr: true,
		},
		{
			name:    "missing spool",
			modify:  func(c *Config) { c.Spool = "" },
			wantErr: true,
		},
		{
			name:    "no smtpd listeners",
			modify:  func(c *Config) { c.SMTP.Listeners = nil },
			wantErr: true,
		},
		{
			name:    "no pop3d listeners",
			modify:  func(c *Config) { c.POP3.Listeners = nil },
			wantErr: true,
		},
		{
			name:    "empty listener address",
			modify:  func(c *Config) { c.SMTP.Listeners = []string{""} },
			wantErr: true,
		},
		{
			name:    "missing auth username",
			modify:  func(c *Config) { c.POP3.Auth.Username = "" },
			wantErr: true,
		},
		{
			name: "missing password and hash",
			modify: func(c *Config) {
				c.POP3.Auth.Password = ""
				c.POP3.Auth.PasswordHash = ""
			},
			wantErr: true,
		},
		{
			name: "hash without password is valid",
			modify: func(c *Config) {
				c.POP3.Auth.Password = ""
				c.POP3.Auth.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
			},
			wantErr: false,
		},
		{
			name:    "zero max_connections",
			modify:  func(c *Config) { c.Limits.MaxConnections = 0 },
			wantErr: true,
		},
		{
			name:    "invalid command timeout",
			modify:  func(c *Config) { c.Timeouts.Command = "not-a-duration" },
			wantErr: true,
		},
		{
			name:    "invalid idle timeout",
			modify:  func(c *Config) { c.Timeouts.Idle = "später" },
			wantErr: true,
		},
		{
			name: "metrics enabled without address",
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Address = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutAccessors(t *testing.T) {
	tests := []struct {
		name        string
		timeouts    TimeoutsConfig
		wantCommand time.Duration
		wantIdle    time.Duration
	}{
		{
			name:        "empty uses defaults",
			timeouts:    TimeoutsConfig{},
			wantCommand: 5 * time.Minute,
			wantIdle:    30 * time.Minute,
		},
		{
			name:        "configured values",
			timeouts:    TimeoutsConfig{Command: "30s", Idle: "2h"},
			wantCommand: 30 * time.Second,
			wantIdle:    2 * time.Hour,
		},
		{
			name:        "zero disables",
			timeouts:    TimeoutsConfig{Command: "0", Idle: "0"},
			wantCommand: 0,
			wantIdle:    0,
		},
		{
			name:        "invalid falls back to defaults",
			timeouts:    TimeoutsConfig{Command: "bogus", Idle: "bogus"},
			wantCommand: 5 * time.Minute,
			wantIdle:    30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.timeouts.CommandTimeout(); got != tt.wantCommand {
				t.Errorf("CommandTimeout() = %v, want %v", got, tt.wantCommand)
			}
			if got := tt.timeouts.IdleTimeout(); got != tt.wantIdle {
				t.Errorf("IdleTimeout() = %v, want %v", got, tt.wantIdle)
			}
		})
	}
}
