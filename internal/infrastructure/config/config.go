// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	loc, err := cfg.Pipeline.Location()
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Rules         RulesConfig         `yaml:"rules"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Accounts      AccountsConfig      `yaml:"accounts"`
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// RulesConfig says where the rule table comes from. With neither Path nor URL
// set, the table compiled into the binary is used.
type RulesConfig struct {
	Path     string        `yaml:"path"`
	URL      string        `yaml:"url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// PipelineConfig holds extraction behavior settings
type PipelineConfig struct {
	// Timezone is an IANA zone name used to stamp single alerts with today's date.
	Timezone        string `yaml:"timezone"`
	UnmatchedPolicy string `yaml:"unmatched_policy"`
}

// AccountsConfig holds multi-account routing settings
type AccountsConfig struct {
	Enabled bool           `yaml:"enabled"`
	Primary string         `yaml:"primary"`
	Holders []HolderConfig `yaml:"holders"`
}

// HolderConfig is one account holder and the markers found in their alerts
type HolderConfig struct {
	Name    string   `yaml:"name"`
	Markers []string `yaml:"markers"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults
const (
	DefaultDatabasePath    = "alertledger.db"
	DefaultTimezone        = "America/Los_Angeles"
	DefaultUnmatchedPolicy = "review"
	DefaultPort            = 8085
	DefaultRulesCacheTTL   = 5 * time.Minute
)

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ALERTLEDGER_RULES_URL})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Rules: RulesConfig{
			Path:     os.Getenv("ALERTLEDGER_RULES_PATH"),
			URL:      os.Getenv("ALERTLEDGER_RULES_URL"),
			CacheTTL: getEnvDuration("ALERTLEDGER_RULES_CACHE_TTL", DefaultRulesCacheTTL),
		},
		Pipeline: PipelineConfig{
			Timezone:        getEnv("ALERTLEDGER_TIMEZONE", DefaultTimezone),
			UnmatchedPolicy: getEnv("ALERTLEDGER_UNMATCHED_POLICY", DefaultUnmatchedPolicy),
		},
		Accounts: AccountsConfig{
			Enabled: getEnvBool("ALERTLEDGER_MULTI_ACCOUNT", false),
			Primary: getEnv("ALERTLEDGER_PRIMARY_ACCOUNT", ""),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("ALERTLEDGER_DB_PATH", DefaultDatabasePath),
		},
		Server: ServerConfig{
			Port:           getEnvInt("ALERTLEDGER_PORT", DefaultPort),
			AllowedOrigins: splitList(os.Getenv("ALERTLEDGER_ALLOWED_ORIGINS")),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Rules.CacheTTL == 0 {
		c.Rules.CacheTTL = DefaultRulesCacheTTL
	}
	if c.Pipeline.Timezone == "" {
		c.Pipeline.Timezone = DefaultTimezone
	}
	if c.Pipeline.UnmatchedPolicy == "" {
		c.Pipeline.UnmatchedPolicy = DefaultUnmatchedPolicy
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = DefaultDatabasePath
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.Rules.Path != "" && c.Rules.URL != "" {
		errs = append(errs, errors.New("rules: path and url are mutually exclusive"))
	}
	if c.Rules.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("rules: cache_ttl must not be negative, got %s", c.Rules.CacheTTL))
	}
	if _, err := c.Pipeline.Location(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline: %w", err))
	}
	switch c.Pipeline.UnmatchedPolicy {
	case "", "review", "drop":
	default:
		errs = append(errs, fmt.Errorf("pipeline: unmatched_policy must be review or drop, got %q", c.Pipeline.UnmatchedPolicy))
	}
	if c.Accounts.Enabled {
		if len(c.Accounts.Holders) == 0 {
			errs = append(errs, errors.New("accounts: enabled without any holders"))
		}
		seen := make(map[string]bool)
		for i, h := range c.Accounts.Holders {
			if strings.TrimSpace(h.Name) == "" {
				errs = append(errs, fmt.Errorf("accounts: holder %d has no name", i))
				continue
			}
			if seen[h.Name] {
				errs = append(errs, fmt.Errorf("accounts: duplicate holder %q", h.Name))
			}
			seen[h.Name] = true
		}
		if c.Accounts.Primary != "" && !seen[c.Accounts.Primary] {
			errs = append(errs, fmt.Errorf("accounts: primary %q is not a configured holder", c.Accounts.Primary))
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: port %d out of range", c.Server.Port))
	}

	return errors.Join(errs...)
}

// Location resolves the configured time zone. An empty zone means UTC.
func (p PipelineConfig) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
