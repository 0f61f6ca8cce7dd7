package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.File != "m.db" {
			t.Errorf("expected database file m.db, got %s", config.Database.File)
		}

		if config.Database.MaxOpenConns != 1 {
			t.Errorf("expected a single open connection, got %d", config.Database.MaxOpenConns)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Resolver.Workers != 4 {
			t.Errorf("expected 4 resolver workers, got %d", config.Resolver.Workers)
		}

		if config.Log.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Log.Level)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
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
path = "/music/Engine Library/Database2"
file = "hm.db"

[resolver]
roots = ["/music", "/mnt/usb"]
exclude = ["/music/.Trash"]
probe = true

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.File != "hm.db" {
			t.Errorf("expected database file hm.db, got %s", config.Database.File)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if len(config.Resolver.Roots) != 2 || config.Resolver.Roots[1] != "/mnt/usb" {
			t.Errorf("unexpected resolver roots %v", config.Resolver.Roots)
		}

		if !config.Resolver.Probe {
			t.Error("expected probe to be enabled")
		}

		if config.Resolver.Workers != 4 {
			t.Errorf("missing keys should keep defaults, got %d workers", config.Resolver.Workers)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server]\nport = 70000\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
