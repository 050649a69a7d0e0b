package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values.
type Flags struct {
	ConfigPath     string
	Hostname       string
	LogLevel       string
	Listen         string
	Spool          string
	MaxConnections int
}

// ParseFlags parses command-line flags and returns a Flags struct.
// The -listen flag is interpreted by each daemon's main: it replaces
// that daemon's listener list with a single address.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigPath, "config", "./mailspool.toml", "Path to configuration file")
	flag.StringVar(&f.Hostname, "hostname", "", "Server hostname")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.Listen, "listen", "", "Listen address (replaces all config listeners)")
	flag.StringVar(&f.Spool, "spool", "", "Spool directory for message storage")
	flag.IntVar(&f.MaxConnections, "max-connections", 0, "Maximum concurrent connections")

	flag.Parse()
	return f
}

// Load parses a TOML configuration file and returns the Config.
// If the file does not exist, returns the default configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig FileConfig
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg = mergeServerConfig(cfg, fileConfig.Server)

	if len(fileConfig.Smtpd.Listeners) > 0 {
		cfg.SMTP.Listeners = fileConfig.Smtpd.Listeners
	}

	if len(fileConfig.Pop3d.Listeners) > 0 {
		cfg.POP3.Listeners = fileConfig.Pop3d.Listeners
	}
	cfg.POP3.Auth = mergeAuthConfig(cfg.POP3.Auth, fileConfig.Pop3d.Auth)

	return cfg, nil
}

// ApplyFlags merges command-line flag values into the config.
// Non-zero/non-empty flag values override config file values.
// The -listen flag is daemon-specific and is not applied here.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Hostname != "" {
		cfg.Hostname = f.Hostname
	}

	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	if f.Spool != "" {
		cfg.Spool = f.Spool
	}

	if f.MaxConnections > 0 {
		cfg.Limits.MaxConnections = f.MaxConnections
	}

	return cfg
}

// LoadWithFlags loads configuration from the path specified in flags,
// then applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}

// mergeServerConfig merges shared server settings into the config.
func mergeServerConfig(dst Config, src ServerConfig) Config {
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}

	if src.Spool != "" {
		dst.Spool = src.Spool
	}

	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.Timeouts.Command != "" {
		dst.Timeouts.Command = src.Timeouts.Command
	}

	if src.Timeouts.Idle != "" {
		dst.Timeouts.Idle = src.Timeouts.Idle
	}

	if src.Limits.MaxConnections > 0 {
		dst.Limits.MaxConnections = src.Limits.MaxConnections
	}

	if src.Metrics.Enabled {
		dst.Metrics.Enabled = src.Metrics.Enabled
	}

	if src.Metrics.Address != "" {
		dst.Metrics.Address = src.Metrics.Address
	}

	if src.Metrics.Path != "" {
		dst.Metrics.Path = src.Metrics.Path
	}

	return dst
}

// mergeAuthConfig merges non-empty credential settings into the defaults.
// Setting password_hash clears the default plaintext password so a stale
// default can never satisfy PASS.
func mergeAuthConfig(dst, src AuthConfig) AuthConfig {
	if src.Username != "" {
		dst.Username = src.Username
	}

	if src.Password != "" {
		dst.Password = src.Password
	}

	if src.PasswordHash != "" {
		dst.PasswordHash = src.PasswordHash
		dst.Password = ""
	}

	return dst
}
