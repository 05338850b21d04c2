package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./klix.db" {
			t.Errorf("expected database path ./klix.db, got %s", config.Database.Path)
		}

		if config.Database.Driver != DriverSQLite {
			t.Errorf("expected driver %s, got %s", DriverSQLite, config.Database.Driver)
		}

		if config.Server.Port != 3001 {
			t.Errorf("expected server port 3001, got %d", config.Server.Port)
		}

		if config.Webhooks.ErrorURL == "" {
			t.Error("expected default error webhook URL to be set")
		}

		if config.Webhooks.ConfirmDelivery {
			t.Error("expected opaque delivery by default")
		}

		if config.Webhooks.Timeout() != 30*time.Second {
			t.Errorf("expected 30s timeout, got %v", config.Webhooks.Timeout())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080

[webhooks]
error_url = ""
registration_url = "http://localhost:9000/register"
timeout_seconds = 0
rate_limit = 2.5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Database.Driver != DriverSQLite {
			t.Errorf("expected missing driver to keep default, got %q", config.Database.Driver)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Webhooks.ErrorURL != "" {
			t.Errorf("expected error URL to be disabled, got %s", config.Webhooks.ErrorURL)
		}

		if config.Webhooks.Timeout() != 0 {
			t.Errorf("expected no timeout, got %v", config.Webhooks.Timeout())
		}

		if config.Webhooks.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %v", config.Webhooks.RateLimit)
		}
	})

	t.Run("LoadConfig Invalid Driver", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database]\ndriver = \"mysql\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Malformed", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
