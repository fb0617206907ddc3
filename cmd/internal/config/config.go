// Package config provides configuration management for the enrichment service.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingListenAddr    = errors.New("server.listen_addr is required")
	ErrMissingUploadsDir    = errors.New("server.uploads_dir is required")
	ErrMissingCacheFile     = errors.New("lookup.cache_file is required")
	ErrMissingBaseURL       = errors.New("lookup.base_url is required")
	ErrInvalidFreshness     = errors.New("lookup.freshness_days must be at least 1")
	ErrInvalidRetention     = errors.New("history.retention_days must be at least 1")
	ErrInvalidSweepInterval = errors.New("history.sweep_interval_min must be at least 1")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Lookup  LookupConfig  `yaml:"lookup"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP surface settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	UploadsDir string `yaml:"uploads_dir"`
	DBFile     string `yaml:"db_file"`
}

// LookupConfig contains remote lookup and cache settings.
type LookupConfig struct {
	BaseURL       string `yaml:"base_url"`
	CacheFile     string `yaml:"cache_file"`
	FreshnessDays int    `yaml:"freshness_days"`
}

// HistoryConfig defines run history retention.
type HistoryConfig struct {
	RetentionDays    int `yaml:"retention_days"`
	SweepIntervalMin int `yaml:"sweep_interval_min"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":7070",
			UploadsDir: "uploads",
			DBFile:     "database.db",
		},
		Lookup: LookupConfig{
			BaseURL:       "https://www.receitaws.com.br",
			CacheFile:     "cnpj_cache.json",
			FreshnessDays: 30,
		},
		History: HistoryConfig{
			RetentionDays:    90,
			SweepIntervalMin: 60,
		},
		Logging: LoggingConfig{
			File:  "cnpj_processor.log",
			Level: "info",
		},
	}
}

// Load reads the configuration from a YAML file, falling back to defaults
// when the file does not exist. Environment variables set by the caller
// (e.g. via godotenv) override selected fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOOKUP_BASE_URL"); v != "" {
		cfg.Lookup.BaseURL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return ErrMissingListenAddr
	}
	if c.Server.UploadsDir == "" {
		return ErrMissingUploadsDir
	}
	if c.Lookup.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Lookup.CacheFile == "" {
		return ErrMissingCacheFile
	}
	if c.Lookup.FreshnessDays < 1 {
		return ErrInvalidFreshness
	}
	if c.History.RetentionDays < 1 {
		return ErrInvalidRetention
	}
	if c.History.SweepIntervalMin < 1 {
		return ErrInvalidSweepInterval
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}
	return nil
}

// Freshness returns the cache freshness window as a duration.
func (c *Config) Freshness() time.Duration {
	return time.Duration(c.Lookup.FreshnessDays) * 24 * time.Hour
}

// Retention returns the run history retention window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// SweepInterval returns how often the history cleaner runs.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.History.SweepIntervalMin) * time.Minute
}
