package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment override.
const envPrefix = "SIMPLE_TRANSLATE_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, SIMPLE_TRANSLATE_CONFIG env,
//     ./config.yaml, <UserConfigDir>/simple-translate/config.yaml)
//  3. SIMPLE_TRANSLATE_* environment variables
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. SIMPLE_TRANSLATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. <UserConfigDir>/simple-translate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv(envPrefix + "CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{"config.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "simple-translate", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps SIMPLE_TRANSLATE_* variables onto config fields.
// Unparseable numeric or duration values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"HOST":          &cfg.Server.Host,
		"BASE_URL":      &cfg.Provider.BaseURL,
		"PROVIDER":      &cfg.Provider.Name,
		"SETTINGS_PATH": &cfg.Settings.Path,
		"STORAGE":       &cfg.Storage.Type,
		"SQLITE_PATH":   &cfg.Storage.SQLite.Path,
		"POSTGRES_DSN":  &cfg.Storage.Postgres.DSN,
		"METRICS_PATH":  &cfg.Observability.Metrics.Path,
		"LOG_LEVEL":     &cfg.Logging.Level,
		"LOG_FORMAT":    &cfg.Logging.Format,
	}
	for name, dst := range strs {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(envPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", envPrefix, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(envPrefix + "STORAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSTORAGE_SIZE: %w", envPrefix, err)
		}
		cfg.Storage.MaxSize = size
	}
	if v := os.Getenv(envPrefix + "PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPROVIDER_TIMEOUT: %w", envPrefix, err)
		}
		cfg.Provider.Timeout = d
	}
	if v := os.Getenv(envPrefix + "METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS_ENABLED: %w", envPrefix, err)
		}
		cfg.Observability.Metrics.Enabled = enabled
	}
	return nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// If the value field is empty and the file field is set, the file is read,
// whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
