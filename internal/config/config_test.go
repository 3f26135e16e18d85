package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.GetAddress() != "0.0.0.0:8080" {
		t.Errorf("Unexpected default address: %s", cfg.GetAddress())
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}

	// Second load reads the file written by the first
	cfg2, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if cfg2.Database.Path != cfg.Database.Path {
		t.Errorf("Reload mismatch: %s vs %s", cfg2.Database.Path, cfg.Database.Path)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Server.Port = "9999"
	cfg.Player.RecentSize = 4
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
	}
	if loaded.Player.RecentSize != 4 {
		t.Errorf("Expected recent size 4, got %d", loaded.Player.RecentSize)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero history", func(c *Config) { c.Player.HistorySize = 0 }},
		{"recent larger than history", func(c *Config) { c.Player.RecentSize = c.Player.HistorySize + 1 }},
		{"no formats", func(c *Config) { c.Ingest.SupportedFormats = nil }},
		{"endpoint without bucket", func(c *Config) { c.Storage.Bucket = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestIsFormatSupported(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsFormatSupported(".mp3") {
		t.Error("Expected .mp3 to be supported")
	}
	if cfg.IsFormatSupported(".ogg") {
		t.Error("Expected .ogg to be unsupported by default")
	}
}
