// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for avesta.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// DEFAULTS AND VALIDATION TESTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.DefaultModel == "" {
		t.Error("default model should not be empty")
	}
	if cfg.Provider.BaseURL == "" {
		t.Error("base URL should not be empty")
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("default backend = %q, want file", cfg.Storage.Backend)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown model", func(c *Config) { c.DefaultModel = "gpt-4o" }, "default_model"},
		{"bad base url", func(c *Config) { c.Provider.BaseURL = "not a url" }, "provider.base_url"},
		{"negative rpm", func(c *Config) { c.Provider.RequestsPerMinute = -1 }, "provider.requests_per_minute"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
		{"bad export format", func(c *Config) { c.Export.Format = "pdf" }, "export.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention field %q", err, tt.field)
			}
		})
	}
}

func TestSetDefaults_FillsMissing(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.DefaultModel != Default().DefaultModel {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Provider.RequestsPerMinute != 60 {
		t.Errorf("RequestsPerMinute = %d, want 60", cfg.Provider.RequestsPerMinute)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", cfg.UI.Theme)
	}
}

func TestMigrate_RetiredModels(t *testing.T) {
	cfg := Default()
	cfg.DefaultModel = "gemini-1.5-flash"
	if err := cfg.Migrate(); err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultModel != "gemini-flash-latest" {
		t.Errorf("migrated model = %q, want gemini-flash-latest", cfg.DefaultModel)
	}

	// Current ids pass through untouched
	cfg.DefaultModel = "gemini-2.5-flash"
	if err := cfg.Migrate(); err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultModel != "gemini-2.5-flash" {
		t.Errorf("current model should not migrate, got %q", cfg.DefaultModel)
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDE TESTS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AVESTA_API_KEY", "key-from-env")
	t.Setenv("AVESTA_MODEL", "gemini-3-pro-preview")
	t.Setenv("AVESTA_STORAGE", "sqlite")
	t.Setenv("AVESTA_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Provider.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q", cfg.Provider.APIKey)
	}
	if cfg.DefaultModel != "gemini-3-pro-preview" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
}

func TestApplyEnvOverrides_GeminiKeyFallback(t *testing.T) {
	t.Setenv("AVESTA_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Provider.APIKey != "gemini-key" {
		t.Errorf("APIKey = %q, want gemini-key", cfg.Provider.APIKey)
	}

	// AVESTA_API_KEY wins when both are set
	t.Setenv("AVESTA_API_KEY", "avesta-key")
	cfg = Default()
	cfg.ApplyEnvOverrides()
	if cfg.Provider.APIKey != "avesta-key" {
		t.Errorf("APIKey = %q, want avesta-key", cfg.Provider.APIKey)
	}
}

// =============================================================================
// LOAD / SAVE TESTS
// =============================================================================

func TestSaveTOMLLoadFromPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = "gemini-flash-latest"
	cfg.UI.ShowStats = true
	cfg.Storage.Backend = "sqlite"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatal(err)
	}

	// SECURITY: saved config must be owner-only
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DefaultModel != "gemini-flash-latest" {
		t.Errorf("DefaultModel = %q", loaded.DefaultModel)
	}
	if !loaded.UI.ShowStats {
		t.Error("ShowStats should be true")
	}
	if loaded.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q", loaded.Storage.Backend)
	}
}

func TestSaveJSONLoadFromPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.UI.CompactMode = true

	if err := SaveJSON(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.UI.CompactMode {
		t.Error("CompactMode should survive a JSON round trip")
	}
}

func TestLoadFromPath_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	partial := "default_model = \"gemini-2.5-flash\"\n"
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Provider.BaseURL != Default().Provider.BaseURL {
		t.Errorf("BaseURL = %q, want default", loaded.Provider.BaseURL)
	}
	if loaded.Storage.Backend != "file" {
		t.Errorf("Backend = %q, want file", loaded.Storage.Backend)
	}
}

func TestLoadFromPath_InvalidValueRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	bad := "default_model = \"made-up-model\"\n"
	if err := os.WriteFile(path, []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected validation error for unknown model")
	}
}

// =============================================================================
// GET/SET TESTS
// =============================================================================

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("ui.theme")
	if err != nil {
		t.Fatal(err)
	}
	if val != "dark" {
		t.Errorf("ui.theme = %v, want dark", val)
	}

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q after Set", cfg.UI.Theme)
	}

	// String forms coerce to the field type
	if err := cfg.Set("provider.requests_per_minute", "30"); err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute = %d, want 30", cfg.Provider.RequestsPerMinute)
	}
	if err := cfg.Set("ui.show_stats", "true"); err != nil {
		t.Fatal(err)
	}
	if !cfg.UI.ShowStats {
		t.Error("ShowStats should be true after Set")
	}

	if _, err := cfg.Get("no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := cfg.Set("provider.nope", 1); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestGetAllKeys_Resolvable(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("key %q should resolve: %v", key, err)
		}
	}
}

// =============================================================================
// DISPLAY TESTS
// =============================================================================

func TestString_RedactsAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKey = "super-secret-key"

	out := cfg.String()
	if strings.Contains(out, "super-secret-key") {
		t.Error("String() must not leak the API key")
	}
	if !strings.Contains(out, "********") {
		t.Error("String() should show a redaction marker")
	}
}

func TestSQLitePath_Resolution(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/tmp/avesta-test"

	path, err := cfg.SQLitePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/avesta-test", "avesta.db") {
		t.Errorf("SQLitePath = %q", path)
	}

	cfg.Storage.SQLitePath = "/elsewhere/chat.db"
	path, err = cfg.SQLitePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/elsewhere/chat.db" {
		t.Errorf("SQLitePath override = %q", path)
	}
}
