// Package config provides configuration for the simple-translate daemon.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (SIMPLE_TRANSLATE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// User-editable translation settings (API key, model, prompt) are not part
// of this file. They live in the settings store, see package settings.
package config

import (
	"net"
	"strconv"
	"time"
)

// Storage types accepted in storage.type.
const (
	StorageNone     = "none"
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the daemon.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Provider      ProviderConfig      `yaml:"provider"`
	Settings      SettingsConfig      `yaml:"settings"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`             // default: "127.0.0.1"
	Port            int           `yaml:"port"`             // default: 8787
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 5m, covers a whole stream
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`   // default: 1 MiB
}

// ProviderConfig holds settings for the upstream chat-completions service.
type ProviderConfig struct {
	Name                  string        `yaml:"name"`                    // only "openai" for now
	BaseURL               string        `yaml:"base_url"`                // default: https://api.openai.com/v1
	Timeout               time.Duration `yaml:"timeout"`                 // non-streaming calls, default: 30s
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"` // 0 = none
}

// SettingsConfig locates the settings file.
type SettingsConfig struct {
	Path string `yaml:"path"` // default: <UserConfigDir>/simple-translate/settings.json
}

// StorageConfig holds translation history settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // none, memory, sqlite or postgres; default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 1000
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path        string        `yaml:"path"`         // default: <UserConfigDir>/simple-translate/history.db
	BusyTimeout time.Duration `yaml:"busy_timeout"` // default: 5s
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig controls the slog handler and debug categories.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR or TRACE; default: INFO
	Format string `yaml:"format"` // text or json; default: text
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8787,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Provider: ProviderConfig{
			Name:    "openai",
			BaseURL: "https://api.openai.com/v1",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Type:    StorageMemory,
			MaxSize: 1000,
			SQLite: SQLiteConfig{
				BusyTimeout: 5 * time.Second,
			},
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
