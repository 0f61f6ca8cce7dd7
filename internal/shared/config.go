package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Resolver ResolverConfig `toml:"resolver"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig locates the library directory and the database file opened at startup.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	File         string `toml:"file"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ResolverConfig contains the defaults used when searching for moved files.
type ResolverConfig struct {
	Roots    []string `toml:"roots"`
	Exclude  []string `toml:"exclude"`
	Workers  int      `toml:"workers"`
	StatRate int      `toml:"stat_rate"`
	Probe    bool     `toml:"probe"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig selects the log level and an optional rotating log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Addr returns the host:port pair the API server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
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
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Database.Path == "":
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	case c.Database.File == "":
		return fmt.Errorf("%w: database.file is empty", ErrInvalidConfig)
	case c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0:
		return fmt.Errorf("%w: connection limits must not be negative", ErrInvalidConfig)
	case c.Resolver.Workers < 0 || c.Resolver.StatRate < 0:
		return fmt.Errorf("%w: resolver workers and stat_rate must not be negative", ErrInvalidConfig)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
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
