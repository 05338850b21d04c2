package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Webhooks WebhookConfig  `toml:"webhooks"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WebhookConfig contains the fixed outbound endpoints and delivery settings.
//
// Per-user endpoints are not configured here; they live on the user's profile.
type WebhookConfig struct {
	ErrorURL        string  `toml:"error_url"`
	ErrorToken      string  `toml:"error_token"`
	RegistrationURL string  `toml:"registration_url"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	RateLimit       float64 `toml:"rate_limit"`
	Workers         int     `toml:"workers"`
	QueueSize       int     `toml:"queue_size"`
	ConfirmDelivery bool    `toml:"confirm_delivery"`
}

// Timeout converts TimeoutSeconds to a [time.Duration]. Zero means no timeout.
func (w WebhookConfig) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// LoggingConfig contains log level and the log file used by the TUI.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Webhooks.RateLimit < 0 {
		return fmt.Errorf("%w: webhooks.rate_limit must not be negative", ErrInvalidConfig)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
