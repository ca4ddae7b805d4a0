// Package config loads zj-link settings from file and environment.
//
// Precedence (highest to lowest):
//  1. Command-line flags (applied by the caller)
//  2. Environment variables (ZJ_LINK_*)
//  3. Config file
//  4. Built-in defaults
//
// Config file search order:
//  1. .zj-link.yaml in current directory
//  2. ~/.config/zj-link/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/timvw/zj-link/internal/project"
	"github.com/timvw/zj-link/internal/zellij"
)

// Config holds all zj-link settings.
type Config struct {
	// Zellij
	ZellijBinary string `yaml:"zellij_binary"`

	// Project config file name searched upward from the editor's directory
	ConfigName string `yaml:"config_name"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	LogFile  string `yaml:"log_file"`  // empty logs to stderr

	// serve
	Socket string `yaml:"socket"` // unix socket path; empty serves stdio
	Watch  bool   `yaml:"watch"`  // reload project configs when they change

	// Picker colors: "dark" (default) or "light"
	Theme string `yaml:"theme"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		ZellijBinary: zellij.DefaultBinary,
		ConfigName:   project.DefaultFileName,
		LogLevel:     "info",
		Theme:        "dark",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.ConfigName == "" || c.ConfigName != filepath.Base(c.ConfigName) {
		return fmt.Errorf("config name %q must be a plain file name", c.ConfigName)
	}
	if c.ZellijBinary == "" {
		return fmt.Errorf("zellij binary is required")
	}
	return nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".zj-link.yaml"); err == nil {
		return ".zj-link.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "zj-link", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.ZellijBinary != "" {
		cfg.ZellijBinary = file.ZellijBinary
	}
	if file.ConfigName != "" {
		cfg.ConfigName = file.ConfigName
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogFile != "" {
		cfg.LogFile = file.LogFile
	}
	if file.Socket != "" {
		cfg.Socket = file.Socket
	}
	if file.Watch {
		cfg.Watch = file.Watch
	}
	if file.Theme != "" {
		cfg.Theme = file.Theme
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("ZJ_LINK_ZELLIJ"); v != "" {
		cfg.ZellijBinary = v
	}
	if v := os.Getenv("ZJ_LINK_CONFIG_NAME"); v != "" {
		cfg.ConfigName = v
	}
	if v := os.Getenv("ZJ_LINK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ZJ_LINK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("ZJ_LINK_SOCKET"); v != "" {
		cfg.Socket = v
	}
	switch os.Getenv("ZJ_LINK_WATCH") {
	case "true", "1":
		cfg.Watch = true
	case "false", "0":
		cfg.Watch = false
	}
	if v := os.Getenv("ZJ_LINK_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}
