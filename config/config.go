// Package config loads the stream consumer configuration from the
// environment (with optional .env support) and an optional YAML overrides
// file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"waldiez-stream/logger"
)

// Processing modes for the consumer binary.
const (
	ModeChat = "chat"
	ModeStep = "step"
)

// DefaultOverridesFile is consulted when WALDIEZ_STREAM_CONFIG is unset.
const DefaultOverridesFile = "waldiez-stream.yaml"

// Config holds all consumer settings. Environment variables win over the
// YAML overrides file, which wins over defaults.
type Config struct {
	// Port serves the /metrics endpoint.
	Port string `env:"PORT" yaml:"port"`

	// Mode selects the processing taxonomy: chat or step.
	Mode string `env:"MODE" yaml:"mode"`

	// FlowID tags all logs with the flow whose run produced the stream.
	FlowID string `env:"FLOW_ID" yaml:"flow_id"`

	// LogDir receives the JSONL observability log.
	LogDir string `env:"LOG_DIR" yaml:"log_dir"`

	// LogLevel is the minimum inline log level (DEBUG, INFO, WARN, ERROR).
	LogLevel string `env:"LOG_LEVEL" yaml:"log_level"`

	// SuppressLogTypes disables inline logging for the named message types
	// (high-volume types like debug_print tend to drown everything else).
	SuppressLogTypes []string `env:"SUPPRESS_LOG_TYPES" envSeparator:"," yaml:"suppress_log_types"`

	// MetricsEnabled controls the /metrics HTTP endpoint.
	MetricsEnabled bool `env:"METRICS_ENABLED" yaml:"metrics_enabled"`
}

// defaults returns the built-in configuration. Defaults live here rather
// than in envDefault tags: env.Parse applies tag defaults whenever the
// variable is unset, which would clobber values the YAML file already set.
func defaults() *Config {
	return &Config{
		Port:           "8787",
		Mode:           ModeChat,
		LogDir:         "logs",
		LogLevel:       "INFO",
		MetricsEnabled: true,
	}
}

// Load builds the configuration: defaults first, then the YAML overrides
// file (if present), then the environment on top (with .env support).
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is not an error

	cfg := defaults()

	path := os.Getenv("WALDIEZ_STREAM_CONFIG")
	if path == "" {
		path = DefaultOverridesFile
	}
	if err := applyOverrides(cfg, path); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Mode != ModeChat && cfg.Mode != ModeStep {
		return nil, fmt.Errorf("invalid mode %q: want %q or %q", cfg.Mode, ModeChat, ModeStep)
	}
	return cfg, nil
}

func applyOverrides(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read overrides file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse overrides file %s: %w", path, err)
	}
	return nil
}

// ShouldLogForType implements logger.LoggerConfig.
func (c *Config) ShouldLogForType(msgType string) bool {
	for _, suppressed := range c.SuppressLogTypes {
		if suppressed == msgType {
			return false
		}
	}
	return true
}

// GetMinLogLevel implements logger.LoggerConfig.
func (c *Config) GetMinLogLevel() logger.Level {
	return logger.ParseLevel(c.LogLevel)
}
