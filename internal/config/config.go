// Package config handles configuration loading for the housing dashboard.
// It supports YAML config files, an optional .env file and environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HOUSINGDASH"

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"    json:"server"`
	FRED      FREDConfig      `mapstructure:"fred"      yaml:"fred"      json:"fred"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard" json:"dashboard"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`
}

// ServerConfig holds the proxy/API server settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// FREDConfig holds the upstream API settings used by the proxy.
type FREDConfig struct {
	APIKey  string        `mapstructure:"api_key"  yaml:"api_key"  json:"-"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"  yaml:"timeout"  json:"timeout"`
}

// DashboardConfig holds the fetch pipeline settings.
type DashboardConfig struct {
	APIBaseURL             string `mapstructure:"api_base_url"             yaml:"api_base_url"             json:"api_base_url"`
	ObservationWindowYears int    `mapstructure:"observation_window_years" yaml:"observation_window_years" json:"observation_window_years"`
	Frequency              string `mapstructure:"frequency"                yaml:"frequency"                json:"frequency"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Endpoints are the proxy URLs the dashboard fetches from.
type Endpoints struct {
	Series string `json:"series"` // series endpoint; the series code is appended as a path segment
	Health string `json:"health"`
}

// Endpoints resolves the series and health URLs from the API base. A base
// pointing at serverless functions uses the fredProxy function; anything
// else uses the server's /api/fred route.
func (d DashboardConfig) Endpoints() Endpoints {
	base := strings.TrimRight(d.APIBaseURL, "/")
	if strings.Contains(base, ".netlify/functions") {
		return Endpoints{Series: base + "/fredProxy", Health: base + "/health"}
	}
	return Endpoints{Series: base + "/api/fred", Health: base + "/health"}
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Dashboard.ObservationWindowYears < 1 {
		errs = append(errs, fmt.Errorf("dashboard.observation_window_years must be at least 1, got %d", c.Dashboard.ObservationWindowYears))
	}
	if c.Dashboard.Frequency == "" {
		errs = append(errs, errors.New("dashboard.frequency is required"))
	}
	if c.Dashboard.APIBaseURL == "" {
		errs = append(errs, errors.New("dashboard.api_base_url is required"))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Load reads the configuration from file and environment variables.
// A .env file in the working directory is loaded first if present.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.housingdash/config.yaml (home directory)
//  3. /etc/housingdash/config.yaml (system)
//
// Environment variables override config file values.
// Format: HOUSINGDASH_<SECTION>_<KEY>, e.g., HOUSINGDASH_SERVER_PORT
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".housingdash"))
	v.AddConfigPath("/etc/housingdash")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("fred.base_url", "https://api.stlouisfed.org/fred")
	v.SetDefault("fred.timeout", 30*time.Second)

	v.SetDefault("dashboard.api_base_url", "http://localhost:4000")
	v.SetDefault("dashboard.observation_window_years", 5)
	v.SetDefault("dashboard.frequency", "m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// FRED_API_KEY is honoured for compatibility with existing deployments.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FRED_API_KEY"); key != "" {
		cfg.FRED.APIKey = key
	}
	if key := os.Getenv(envPrefix + "_FRED_API_KEY"); key != "" {
		cfg.FRED.APIKey = key
	}
}

// loadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
