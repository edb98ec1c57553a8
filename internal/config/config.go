// Package config loads the bridge configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPageSize is the number of rows a row set buffers per fetch.
const DefaultPageSize = 1024

// Config is the root configuration structure for the bridge library.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Logging LoggingConfig `yaml:"logging"`
	Rows    RowsConfig    `yaml:"rows"`
}

// RuntimeConfig sizes the background task runtime.
type RuntimeConfig struct {
	// Workers bounds concurrently running tasks. Zero picks a default.
	Workers int64 `yaml:"workers"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string   `yaml:"level"`
	Format string   `yaml:"format"`
	Output []string `yaml:"output"`
}

// RowsConfig contains result streaming settings.
type RowsConfig struct {
	PageSize int `yaml:"page_size"`
}

// Load reads the configuration at path. An empty path yields the defaults,
// still subject to environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: []string{"stderr"},
		},
		Rows: RowsConfig{
			PageSize: DefaultPageSize,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DUCKFFI_WORKERS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing DUCKFFI_WORKERS: %w", err)
		}
		cfg.Runtime.Workers = n
	}
	if v := os.Getenv("DUCKFFI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DUCKFFI_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DUCKFFI_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing DUCKFFI_PAGE_SIZE: %w", err)
		}
		cfg.Rows.PageSize = n
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Runtime.Workers < 0 {
		errs = append(errs, "runtime.workers must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not one of json, console", c.Logging.Format))
	}
	if len(c.Logging.Output) == 0 {
		errs = append(errs, "logging.output needs at least one path")
	}

	if c.Rows.PageSize < 1 {
		errs = append(errs, "rows.page_size must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
