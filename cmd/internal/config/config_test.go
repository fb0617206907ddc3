package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":7070" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Lookup.FreshnessDays != 30 {
		t.Errorf("unexpected freshness days: %d", cfg.Lookup.FreshnessDays)
	}
	if cfg.Lookup.CacheFile != "cnpj_cache.json" {
		t.Errorf("unexpected cache file: %s", cfg.Lookup.CacheFile)
	}
	if cfg.Logging.File != "cnpj_processor.log" {
		t.Errorf("unexpected log file: %s", cfg.Logging.File)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  listen_addr: ":9090"
lookup:
  freshness_days: 7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Lookup.FreshnessDays != 7 {
		t.Errorf("unexpected freshness days: %d", cfg.Lookup.FreshnessDays)
	}
	// Untouched sections keep defaults
	if cfg.History.RetentionDays != 90 {
		t.Errorf("unexpected retention days: %d", cfg.History.RetentionDays)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LOOKUP_BASE_URL", "http://localhost:1234")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}
	if cfg.Lookup.BaseURL != "http://localhost:1234" {
		t.Errorf("env override not applied, got %s", cfg.Lookup.BaseURL)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr error
	}{
		{
			name:    "Missing listen addr",
			mutate:  func(cfg *Config) { cfg.Server.ListenAddr = "" },
			wantErr: ErrMissingListenAddr,
		},
		{
			name:    "Missing uploads dir",
			mutate:  func(cfg *Config) { cfg.Server.UploadsDir = "" },
			wantErr: ErrMissingUploadsDir,
		},
		{
			name:    "Missing base URL",
			mutate:  func(cfg *Config) { cfg.Lookup.BaseURL = "" },
			wantErr: ErrMissingBaseURL,
		},
		{
			name:    "Missing cache file",
			mutate:  func(cfg *Config) { cfg.Lookup.CacheFile = "" },
			wantErr: ErrMissingCacheFile,
		},
		{
			name:    "Zero freshness window",
			mutate:  func(cfg *Config) { cfg.Lookup.FreshnessDays = 0 },
			wantErr: ErrInvalidFreshness,
		},
		{
			name:    "Zero retention",
			mutate:  func(cfg *Config) { cfg.History.RetentionDays = 0 },
			wantErr: ErrInvalidRetention,
		},
		{
			name:    "Bad log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := Default()
	if cfg.Freshness().Hours() != 30*24 {
		t.Errorf("unexpected freshness window: %v", cfg.Freshness())
	}
	if cfg.Retention().Hours() != 90*24 {
		t.Errorf("unexpected retention window: %v", cfg.Retention())
	}
}
