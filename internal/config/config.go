package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gadget-inventory-api/internal/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultJWTSecret  = "your-secret-key-change-in-production"
	minJWTSecretLen   = 32
	minJWTExpiry      = time.Minute
	maxJWTExpiry      = 30 * 24 * time.Hour
	defaultJWTExpiry  = 24 * time.Hour
	defaultServiceTag = "gadget-inventory-api"
)

type Config struct {
	Environment string `yaml:"environment"`

	DBDSN    string `yaml:"db_dsn"`
	HTTPAddr string `yaml:"http_addr"`

	ExportDir     string `yaml:"export_dir"`
	ImportMapping string `yaml:"import_mapping"`
	TimeZone      string `yaml:"timezone"`

	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	EnableMetrics bool   `yaml:"enable_metrics"`

	AuthEnabled bool          `yaml:"auth_enabled"`
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTAudience string        `yaml:"jwt_audience"`
	JWTExpiry   time.Duration `yaml:"jwt_expiry"`
}

func defaults() *Config {
	return &Config{
		Environment:   "development",
		HTTPAddr:      ":8080",
		ExportDir:     "exports",
		ImportMapping: "configs/mapping/assets.yaml",
		TimeZone:      "UTC",
		LogLevel:      "info",
		LogFormat:     "json",
		EnableMetrics: true,
		JWTSecret:     defaultJWTSecret,
		JWTIssuer:     defaultServiceTag,
		JWTAudience:   defaultServiceTag,
		JWTExpiry:     defaultJWTExpiry,
	}
}

// Load reads configuration from the environment on top of the defaults.
func Load() *Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile overlays a YAML file on the defaults, then applies the
// environment, so env vars always win.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadAndValidate loads from CONFIG_FILE when set, else from the environment,
// and validates the result.
func LoadAndValidate() (*Config, error) {
	var cfg *Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = Load()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.DBDSN = getEnv("DB_DSN", c.DBDSN)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.ExportDir = getEnv("EXPORT_DIR", c.ExportDir)
	c.ImportMapping = getEnv("IMPORT_MAPPING", c.ImportMapping)
	c.TimeZone = getEnv("APP_TIMEZONE", c.TimeZone)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.AuthEnabled = getEnvBool("AUTH_ENABLED", c.AuthEnabled)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISS", c.JWTIssuer)
	c.JWTAudience = getEnv("JWT_AUD", c.JWTAudience)

	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			c.JWTExpiry = expiry
		}
	}
}

// Validate checks settings that would otherwise fail late at runtime.
// JWT settings are only checked when auth is enabled.
func (c *Config) Validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR cannot be empty"))
	}
	if c.ExportDir == "" {
		errs = append(errs, errors.New("EXPORT_DIR cannot be empty"))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE %q: %w", c.TimeZone, err))
	}
	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.LogFormat))
	}
	if c.AuthEnabled {
		if err := c.validateJWT(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateJWT() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET cannot be empty")
	case len(c.JWTSecret) < minJWTSecretLen:
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen)
	case c.IsProduction() && c.JWTSecret == defaultJWTSecret:
		return errors.New("JWT_SECRET must be changed in production")
	case c.JWTIssuer == "":
		return errors.New("JWT_ISS cannot be empty")
	case c.JWTAudience == "":
		return errors.New("JWT_AUD cannot be empty")
	case c.JWTExpiry < minJWTExpiry:
		return fmt.Errorf("JWT_EXPIRY must be at least %s", minJWTExpiry)
	case c.JWTExpiry > maxJWTExpiry:
		return fmt.Errorf("JWT_EXPIRY must be at most %s", maxJWTExpiry)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
