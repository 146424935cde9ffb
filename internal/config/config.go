package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Facebook FacebookConfig `yaml:"facebook"`
	Report   ReportConfig   `yaml:"report"`
	Notion   NotionConfig   `yaml:"notion"`
	Creative CreativeConfig `yaml:"creative"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// TelegramConfig contains bot transport settings
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"` // the single authorized operator chat
}

// FacebookConfig contains Marketing API settings
type FacebookConfig struct {
	AppID       string   `yaml:"app_id"`
	AppSecret   string   `yaml:"app_secret"`
	AccessToken string   `yaml:"access_token"`
	AccountIDs  []string `yaml:"ad_account_ids"` // each must start with "act_"
	APIVersion  string   `yaml:"api_version"`    // Default: v19.0
}

// ReportConfig contains scheduled daily report settings
type ReportConfig struct {
	Hour     int    `yaml:"hour"`     // local hour of day, 0-23
	Timezone string `yaml:"timezone"` // IANA name, e.g. Europe/Rome
}

// NotionConfig contains workspace sync settings (optional)
type NotionConfig struct {
	APIKey      string `yaml:"api_key"`
	ClientsDBID string `yaml:"clients_db_id"`
}

// Enabled reports whether Notion sync is configured.
func (n NotionConfig) Enabled() bool {
	return n.APIKey != "" && n.ClientsDBID != ""
}

// CreativeConfig contains ad-image generation settings
type CreativeConfig struct {
	StatePath      string        `yaml:"state_path"`      // JSON cache of clients/offers/hooks
	OutputDir      string        `yaml:"output_dir"`      // where the generation CLI drops images
	GeminiBin      string        `yaml:"gemini_bin"`      // path to the gemini CLI
	Models         []string      `yaml:"models"`          // priority order for fallback
	AttemptTimeout time.Duration `yaml:"attempt_timeout"` // per-image, per-model bound
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"` // Default: :9090
	Path       string `yaml:"path"`        // Default: /metrics
}

// defaultModels is the generation fallback chain, most capable first.
var defaultModels = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

// Load loads configuration from a YAML file. Environment references in the
// file (${VAR}) are expanded before parsing so secrets stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Facebook.APIVersion == "" {
		c.Facebook.APIVersion = "v19.0"
	}

	if c.Report.Timezone == "" {
		c.Report.Timezone = "Europe/Rome"
	}
	if c.Report.Hour == 0 {
		c.Report.Hour = 9
	}

	home, _ := os.UserHomeDir()
	if c.Creative.StatePath == "" {
		c.Creative.StatePath = home + "/.adbot/state.json"
	}
	if c.Creative.OutputDir == "" {
		c.Creative.OutputDir = home + "/.adbot/output"
	}
	if c.Creative.GeminiBin == "" {
		c.Creative.GeminiBin = "gemini"
	}
	if len(c.Creative.Models) == 0 {
		c.Creative.Models = append([]string(nil), defaultModels...)
	}
	if c.Creative.AttemptTimeout == 0 {
		c.Creative.AttemptTimeout = 180 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.Token == "" || strings.HasPrefix(c.Telegram.Token, "your-") {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required")
	}

	if c.Facebook.AppID == "" {
		return fmt.Errorf("facebook.app_id is required")
	}
	if c.Facebook.AppSecret == "" {
		return fmt.Errorf("facebook.app_secret is required")
	}
	if c.Facebook.AccessToken == "" {
		return fmt.Errorf("facebook.access_token is required")
	}
	if len(c.Facebook.AccountIDs) == 0 {
		return fmt.Errorf("facebook.ad_account_ids must not be empty")
	}
	for _, acct := range c.Facebook.AccountIDs {
		if !strings.HasPrefix(acct, "act_") {
			return fmt.Errorf("ad account ID %q must start with 'act_'", acct)
		}
	}

	if c.Report.Hour < 0 || c.Report.Hour > 23 {
		return fmt.Errorf("report.hour must be between 0 and 23, got %d", c.Report.Hour)
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid report.timezone: %w", err)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// Location resolves the report timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
