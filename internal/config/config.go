// Package config loads and persists photocull's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"photocull/internal/match"
)

// Config holds every user-tunable setting.
type Config struct {
	Threshold       int      `toml:"threshold"`
	Strategy        string   `toml:"strategy"`
	Workers         int      `toml:"workers"`
	BatchSize       int      `toml:"batch_size"`
	FileTypes       []string `toml:"file_types"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	AutoConfirm     bool     `toml:"auto_confirm"`
	DBPath          string   `toml:"db_path"`
	ThumbnailDir    string   `toml:"thumbnail_dir"`
	LogLevel        string   `toml:"log_level"`
	LogFormat       string   `toml:"log_format"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Threshold: match.DefaultThreshold,
		Strategy:  string(match.StrategyOldest),
		Workers:   8,
		BatchSize: 100,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultConfigPath returns ~/.config/photocull/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "photocull", "config.toml"), nil
}

// DefaultDataDir returns ~/.local/share/photocull, where the catalog
// database and thumbnail cache live unless overridden.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "photocull"), nil
}

// Load reads the config at path, or the default path when path is empty.
// A missing file yields the defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := path
	if resolved == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		resolved = p
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == "" {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks value ranges and known enumerations.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 64 {
		return fmt.Errorf("threshold must be between 0 and 64, got %d", c.Threshold)
	}
	if _, err := match.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Set assigns a single key to a string value, converting as needed.
// Keys match the TOML field names.
func (c *Config) Set(key, value string) error {
	switch key {
	case "threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("threshold must be an integer: %w", err)
		}
		c.Threshold = n
	case "strategy":
		c.Strategy = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("workers must be an integer: %w", err)
		}
		c.Workers = n
	case "batch_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("batch_size must be an integer: %w", err)
		}
		c.BatchSize = n
	case "file_types":
		c.FileTypes = splitList(value)
	case "exclude_patterns":
		c.ExcludePatterns = splitList(value)
	case "auto_confirm":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto_confirm must be true or false: %w", err)
		}
		c.AutoConfirm = b
	case "db_path":
		c.DBPath = value
	case "thumbnail_dir":
		c.ThumbnailDir = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
