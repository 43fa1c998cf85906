// Package config handles configuration loading for Stocker.
// It supports YAML config files, .env files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment override, e.g. STOCKER_API_PORT.
const envPrefix = "STOCKER"

// Config represents the complete application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host              string   `mapstructure:"host"                yaml:"host"`
	Port              int      `mapstructure:"port"                yaml:"port"`
	CORSOrigins       []string `mapstructure:"cors_origins"        yaml:"cors_origins"`
	StaticDir         string   `mapstructure:"static_dir"          yaml:"static_dir"` // optional UI directory served at /
	RequestTimeoutSec int      `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RequestTimeout returns the per-request timeout for ordinary routes.
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DataFile string `mapstructure:"data_file" yaml:"data_file"` // JSON collection
	AuditDB  string `mapstructure:"audit_db"  yaml:"audit_db"`  // SQLite refresh log; empty disables
}

// DataDir returns the directory holding the collection file.
func (c StorageConfig) DataDir() string {
	return filepath.Dir(c.DataFile)
}

// ProviderConfig holds market data provider settings.
type ProviderConfig struct {
	Name           string  `mapstructure:"name"             yaml:"name"` // "yfinance"
	BaseURL        string  `mapstructure:"base_url"         yaml:"base_url"`
	CookieURL      string  `mapstructure:"cookie_url"       yaml:"cookie_url"`
	UserAgent      string  `mapstructure:"user_agent"       yaml:"user_agent"`
	TimeoutSec     int     `mapstructure:"timeout_sec"      yaml:"timeout_sec"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec" yaml:"requests_per_sec"`
	Burst          int     `mapstructure:"burst"            yaml:"burst"`
}

// Timeout returns the upstream HTTP timeout.
func (c ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stocker/config.yaml (home directory)
//  3. /etc/stocker/config.yaml (system)
//
// Environment variables override config file values.
// Format: STOCKER_<SECTION>_<KEY>, e.g., STOCKER_STORAGE_DATA_FILE
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stocker"))
	v.AddConfigPath("/etc/stocker")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files (default ".env")
// into the process environment. Existing variables win; missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 3000)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.static_dir", "")
	v.SetDefault("api.request_timeout_sec", 120)

	// Storage defaults
	v.SetDefault("storage.data_file", filepath.Join("data", "stocks.json"))
	v.SetDefault("storage.audit_db", filepath.Join("data", "refresh_audit.db"))

	// Provider defaults
	v.SetDefault("provider.name", "yfinance")
	v.SetDefault("provider.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.cookie_url", "https://fc.yahoo.com")
	v.SetDefault("provider.user_agent", "")
	v.SetDefault("provider.timeout_sec", 30)
	v.SetDefault("provider.requests_per_sec", 2.0)
	v.SetDefault("provider.burst", 2)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv applies conventional variables that do not follow the prefix scheme.
func overrideFromEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_API_PORT") == "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.API.Port = p
		}
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
