// Package config loads and validates the liveprof CLI configuration. The
// core engine takes no defaults; every default lives here, at the
// convenience layer.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/liveprof/liveprof/internal/logging"
)

// Display modes.
const (
	ModeLive   = "live"   // in-place terminal updates
	ModeAppend = "append" // one block per update
	ModeFinal  = "final"  // only the terminal snapshot
)

// Default values for Config.
const (
	DefaultIntervalMillis = 100
	DefaultTopN           = 15
	DefaultMode           = ModeLive
	DefaultLogLevel       = "warn"
)

// Config is the liveprof.yaml file.
type Config struct {
	IntervalMillis int    `yaml:"interval_ms"`
	TopN           int    `yaml:"top_n"`
	Mode           string `yaml:"mode"`
	Color          bool   `yaml:"color"`
	Width          int    `yaml:"width"`
	LogLevel       string `yaml:"log_level"`
	StreamAddr     string `yaml:"stream_addr"` // empty disables the frame stream
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		IntervalMillis: DefaultIntervalMillis,
		TopN:           DefaultTopN,
		Mode:           DefaultMode,
		Color:          true,
		LogLevel:       DefaultLogLevel,
	}
}

// Interval returns the refresh interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMillis) * time.Millisecond
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Load reads and parses the config file at path. A missing file returns the
// default config; defaults also apply for any omitted field.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all config values are valid.
func Validate(cfg *Config) error {
	if cfg.IntervalMillis <= 0 {
		return ValidationError{Field: "interval_ms", Message: "must be positive"}
	}
	if cfg.TopN <= 0 {
		return ValidationError{Field: "top_n", Message: "must be positive"}
	}
	switch cfg.Mode {
	case ModeLive, ModeAppend, ModeFinal:
	default:
		return ValidationError{Field: "mode", Message: "must be live, append, or final"}
	}
	if cfg.Width < 0 {
		return ValidationError{Field: "width", Message: "must not be negative"}
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return ValidationError{Field: "log_level", Message: "must be debug, info, warn, or error"}
	}
	return nil
}
