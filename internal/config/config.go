/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides configuration management for FlyMem.

The configuration system supports multiple sources with clear precedence:
 1. Command-line flags or programmatic overrides (highest priority)
 2. Environment variables
 3. Configuration file
 4. Default values (lowest priority)

Configuration File Format:
The configuration file uses a flat TOML subset.

Example configuration file:

	# FlyMem Configuration
	log_level = "info"
	log_json = false
	collation = "unicode"
	locale = "de_DE"
	index_degree = 32
	statement_cache = 256

Environment Variables:
  - FLYMEM_LOG_LEVEL: Log level (debug, info, warn, error)
  - FLYMEM_LOG_JSON: Enable JSON logging (true/false)
  - FLYMEM_COLLATION: Text collation (default, binary, nocase, unicode)
  - FLYMEM_LOCALE: Locale for the unicode collation
  - FLYMEM_INDEX_DEGREE: B-tree minimum degree
  - FLYMEM_STATEMENT_CACHE: Parsed statement cache size (0 disables)
  - FLYMEM_HISTORY_FILE: Shell history file
  - FLYMEM_CONFIG_FILE: Path to configuration file
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"flymem/internal/logging"
)

// Environment variable names for configuration.
const (
	EnvLogLevel       = "FLYMEM_LOG_LEVEL"
	EnvLogJSON        = "FLYMEM_LOG_JSON"
	EnvCollation      = "FLYMEM_COLLATION"
	EnvLocale         = "FLYMEM_LOCALE"
	EnvIndexDegree    = "FLYMEM_INDEX_DEGREE"
	EnvStatementCache = "FLYMEM_STATEMENT_CACHE"
	EnvHistoryFile    = "FLYMEM_HISTORY_FILE"
	EnvConfigFile     = "FLYMEM_CONFIG_FILE"
)

// Default configuration file paths (searched in order).
var DefaultConfigPaths = []string{
	"/etc/flymem/flymem.conf",
	"$HOME/.config/flymem/flymem.conf",
	"./flymem.conf",
}

// Valid collation names.
var validCollations = map[string]bool{
	"default": true,
	"binary":  true,
	"nocase":  true,
	"unicode": true,
}

// Config holds all configuration values for FlyMem.
type Config struct {
	// Logging configuration
	LogLevel string `toml:"log_level" json:"log_level"`
	LogJSON  bool   `toml:"log_json" json:"log_json"`

	// Type system configuration
	Collation string `toml:"collation" json:"collation"` // Text comparison rules
	Locale    string `toml:"locale" json:"locale"`       // Locale for the unicode collation

	// Storage configuration
	IndexDegree    int `toml:"index_degree" json:"index_degree"`       // B-tree minimum degree
	StatementCache int `toml:"statement_cache" json:"statement_cache"` // Parsed statement LRU entries

	// Shell configuration
	HistoryFile string `toml:"history_file" json:"history_file"`

	// Metadata
	ConfigFile string `toml:"-" json:"-"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	history := ".flymem_history"
	if home := os.Getenv("HOME"); home != "" {
		history = filepath.Join(home, ".flymem_history")
	}
	return &Config{
		LogLevel:       "warn",
		LogJSON:        false,
		Collation:      "default",
		Locale:         "en_US",
		IndexDegree:    32,
		StatementCache: 256,
		HistoryFile:    history,
	}
}

// Manager handles configuration loading, validation, and access.
type Manager struct {
	config *Config
	mu     sync.RWMutex

	onReload []func(*Config)
}

// NewManager creates a new configuration manager with default values.
func NewManager() *Manager {
	return &Manager{config: DefaultConfig()}
}

var globalManager = NewManager()

// Global returns the global configuration manager.
func Global() *Manager {
	return globalManager
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := *m.config
	return &cfg
}

// Set updates the configuration.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
}

// OnReload registers a callback to be called when configuration is reloaded.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

func (m *Manager) notifyReload() {
	m.mu.RLock()
	callbacks := make([]func(*Config), len(m.onReload))
	copy(callbacks, m.onReload)
	cfg := *m.config
	m.mu.RUnlock()

	for _, fn := range callbacks {
		fn(&cfg)
	}
}

// Validate checks if the configuration is valid.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	if !validCollations[strings.ToLower(c.Collation)] {
		errs = append(errs, fmt.Sprintf("invalid collation: %s (must be default, binary, nocase, or unicode)", c.Collation))
	}
	if strings.EqualFold(c.Collation, "unicode") && c.Locale == "" {
		errs = append(errs, "locale is required for the unicode collation")
	}

	if c.IndexDegree < 2 {
		errs = append(errs, fmt.Sprintf("invalid index_degree: %d (must be at least 2)", c.IndexDegree))
	}
	if c.StatementCache < 0 {
		errs = append(errs, fmt.Sprintf("invalid statement_cache: %d (must not be negative)", c.StatementCache))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Logging returns the logger configuration derived from c.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:    logging.ParseLevel(c.LogLevel),
		Output:   os.Stderr,
		JSONMode: c.LogJSON,
	}
}

// LoadFromFile loads configuration from a TOML file.
func (m *Manager) LoadFromFile(path string) error {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := parseTOML(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ConfigFile = path
	m.Set(cfg)
	return nil
}

// LoadFromEnv merges environment variables over the current configuration.
func (m *Manager) LoadFromEnv() error {
	cfg := m.Get()

	pairs := []struct {
		env string
		key string
	}{
		{EnvLogLevel, "log_level"},
		{EnvLogJSON, "log_json"},
		{EnvCollation, "collation"},
		{EnvLocale, "locale"},
		{EnvIndexDegree, "index_degree"},
		{EnvStatementCache, "statement_cache"},
		{EnvHistoryFile, "history_file"},
	}
	for _, p := range pairs {
		v, ok := os.LookupEnv(p.env)
		if !ok || v == "" {
			continue
		}
		if err := applyConfigValue(cfg, p.key, v); err != nil {
			return fmt.Errorf("%s: %w", p.env, err)
		}
	}

	m.Set(cfg)
	return nil
}

// FindConfigFile searches for a configuration file in default locations.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	if envPath := os.Getenv(EnvConfigFile); envPath != "" {
		if _, err := os.Stat(os.ExpandEnv(envPath)); err == nil {
			return os.ExpandEnv(envPath)
		}
	}

	for _, path := range DefaultConfigPaths {
		expandedPath := os.ExpandEnv(path)
		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath
		}
	}

	return ""
}

// Load loads configuration from all sources with proper precedence.
// Order: defaults -> config file -> environment variables.
func (m *Manager) Load() error {
	if configPath := FindConfigFile(); configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	return m.LoadFromEnv()
}

// Reload reloads configuration from file and environment and notifies
// registered callbacks.
func (m *Manager) Reload() error {
	configPath := m.Get().ConfigFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	m.Set(DefaultConfig())

	if configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	if err := m.LoadFromEnv(); err != nil {
		return err
	}

	m.notifyReload()
	return nil
}

// parseTOML parses the flat key = value subset of TOML used by FlyMem.
func parseTOML(data string, cfg *Config) error {
	lines := strings.Split(data, "\n")

	for lineNum, line := range lines {
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("line %d: invalid syntax: %s", lineNum+1, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := applyConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNum+1, err)
		}
	}

	return nil
}

// Set applies a single key-value pair, as read from a file, the
// environment or a shell command.
func (c *Config) Set(key, value string) error {
	return applyConfigValue(c, key, value)
}

func applyConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "log_level":
		cfg.LogLevel = value
	case "log_json":
		cfg.LogJSON = parseBool(value)
	case "collation":
		cfg.Collation = strings.ToLower(value)
	case "locale":
		cfg.Locale = value
	case "index_degree":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid index_degree value: %s", value)
		}
		cfg.IndexDegree = n
	case "statement_cache":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid statement_cache value: %s", value)
		}
		cfg.StatementCache = n
	case "history_file":
		cfg.HistoryFile = value
	default:
		// Ignore unknown keys for forward compatibility
	}
	return nil
}

func parseBool(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("FlyMem Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Log Level:        %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  Log JSON:         %v\n", c.LogJSON))
	sb.WriteString(fmt.Sprintf("  Collation:        %s\n", c.Collation))
	sb.WriteString(fmt.Sprintf("  Locale:           %s\n", c.Locale))
	sb.WriteString(fmt.Sprintf("  Index Degree:     %d\n", c.IndexDegree))
	sb.WriteString(fmt.Sprintf("  Statement Cache:  %d\n", c.StatementCache))
	if c.ConfigFile != "" {
		sb.WriteString(fmt.Sprintf("  Config File:      %s\n", c.ConfigFile))
	}
	return sb.String()
}

// ToTOML returns the configuration as a TOML string.
func (c *Config) ToTOML() string {
	var sb strings.Builder
	sb.WriteString("# FlyMem Configuration File\n\n")
	sb.WriteString("# Logging\n")
	sb.WriteString(fmt.Sprintf("log_level = \"%s\"\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("log_json = %v\n\n", c.LogJSON))
	sb.WriteString("# Text comparison: default, binary, nocase, or unicode\n")
	sb.WriteString(fmt.Sprintf("collation = \"%s\"\n", c.Collation))
	sb.WriteString(fmt.Sprintf("locale = \"%s\"\n\n", c.Locale))
	sb.WriteString("# Storage\n")
	sb.WriteString(fmt.Sprintf("index_degree = %d\n", c.IndexDegree))
	sb.WriteString(fmt.Sprintf("statement_cache = %d\n\n", c.StatementCache))
	sb.WriteString("# Shell\n")
	sb.WriteString(fmt.Sprintf("history_file = \"%s\"\n", c.HistoryFile))
	return sb.String()
}

// SaveToFile saves the configuration to a file.
func (c *Config) SaveToFile(path string) error {
	path = os.ExpandEnv(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.ToTOML()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
