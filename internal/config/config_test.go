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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flymem/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected default log_level 'warn', got '%s'", cfg.LogLevel)
	}
	if cfg.LogJSON {
		t.Errorf("Expected default log_json false, got %v", cfg.LogJSON)
	}
	if cfg.Collation != "default" {
		t.Errorf("Expected default collation 'default', got '%s'", cfg.Collation)
	}
	if cfg.IndexDegree != 32 {
		t.Errorf("Expected default index_degree 32, got %d", cfg.IndexDegree)
	}
	if cfg.StatementCache != 256 {
		t.Errorf("Expected default statement_cache 256, got %d", cfg.StatementCache)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(*Config) {}, false},
		{"invalid log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"invalid collation", func(c *Config) { c.Collation = "klingon" }, true},
		{"unicode without locale", func(c *Config) { c.Collation = "unicode"; c.Locale = "" }, true},
		{"unicode with locale", func(c *Config) { c.Collation = "unicode"; c.Locale = "sv_SE" }, false},
		{"degree too small", func(c *Config) { c.IndexDegree = 1 }, true},
		{"negative cache", func(c *Config) { c.StatementCache = -1 }, true},
		{"cache disabled", func(c *Config) { c.StatementCache = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.IndexDegree = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "log_level") || !strings.Contains(err.Error(), "index_degree") {
		t.Errorf("expected both problems reported, got: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flymem.conf")
	content := `# FlyMem test config
log_level = "debug"
log_json = true
collation = 'NOCASE'
index_degree = 8   # small trees for tests
statement_cache = 0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m := NewManager()
	if err := m.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	cfg := m.Get()
	if cfg.LogLevel != "debug" || !cfg.LogJSON || cfg.Collation != "nocase" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.IndexDegree != 8 || cfg.StatementCache != 0 {
		t.Errorf("unexpected numeric values: %+v", cfg)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.conf")
	if err := os.WriteFile(bad, []byte("index_degree = many\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewManager().LoadFromFile(bad); err == nil {
		t.Error("expected error for non-numeric index_degree")
	}

	if err := NewManager().LoadFromFile(filepath.Join(dir, "missing.conf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvCollation, "binary")
	t.Setenv(EnvIndexDegree, "4")

	m := NewManager()
	if err := m.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	cfg := m.Get()
	if cfg.LogLevel != "error" || cfg.Collation != "binary" || cfg.IndexDegree != 4 {
		t.Errorf("env values not applied: %+v", cfg)
	}

	t.Setenv(EnvStatementCache, "lots")
	if err := m.LoadFromEnv(); err == nil {
		t.Error("expected error for invalid FLYMEM_STATEMENT_CACHE")
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "flymem.conf")

	cfg := DefaultConfig()
	cfg.LogLevel = "info"
	cfg.Collation = "unicode"
	cfg.Locale = "sv_SE"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	t.Setenv(EnvConfigFile, path)
	m := NewManager()
	var reloaded *Config
	m.OnReload(func(c *Config) { reloaded = c })
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reloaded == nil {
		t.Fatal("reload callback not invoked")
	}
	if reloaded.Collation != "unicode" || reloaded.Locale != "sv_SE" || reloaded.LogLevel != "info" {
		t.Errorf("round trip lost values: %+v", reloaded)
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.LogJSON = true
	lc := cfg.Logging()
	if lc.Level != logging.DEBUG || !lc.JSONMode {
		t.Errorf("unexpected logging config: %+v", lc)
	}
}
