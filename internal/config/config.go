package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Billing settings
	Billing BillingConfig `yaml:"billing"`

	// External invoicing service
	Invoicing InvoicingConfig `yaml:"invoicing"`

	// Logging
	Log LogConfig `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type BillingConfig struct {
	VATRate float64 `yaml:"vat_rate"` // VAT rate in percent (8.1 = 8.1%)
}

type InvoicingConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// DefaultConfigPath returns ~/.config/timebill/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "timebill", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "timebill", "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".config", "timebill", "timebill.db"),
		},
		Billing: BillingConfig{
			VATRate: 8.1,
		},
		Invoicing: InvoicingConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads config from the given path, or returns defaults if file
// doesn't exist. A .env file and TIMEBILL_* environment variables
// override file values.
func Load(path string) (*Config, error) {
	// Skip error: an absent .env file is the normal case
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TIMEBILL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TIMEBILL_VAT_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Billing.VATRate = rate
		}
	}
	if v := os.Getenv("TIMEBILL_INVOICING_URL"); v != "" {
		cfg.Invoicing.BaseURL = v
		cfg.Invoicing.Enabled = true
	}
	if v := os.Getenv("TIMEBILL_INVOICING_TOKEN"); v != "" {
		cfg.Invoicing.Token = v
	}
	if v := os.Getenv("TIMEBILL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TIMEBILL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the directories the application writes to
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(filepath.Dir(c.Database.Path), 0755)
}
