// Package config loads the frontend's settings from an optional .env file,
// an optional YAML file and the environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all frontend settings.
type Config struct {
	Env      string        `yaml:"env"`
	LogLevel string        `yaml:"log_level"`
	Web      WebConfig     `yaml:"web"`
	Predict  PredictConfig `yaml:"predict"`
	TLS      TLSConfig     `yaml:"tls"`
	Limits   LimitsConfig  `yaml:"limits"`
}

// WebConfig configures the HTTP listener.
type WebConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PredictConfig points at the classification service.
type PredictConfig struct {
	URL string `yaml:"url"`
}

// TLSConfig enables automatic HTTPS when Domain is set.
type TLSConfig struct {
	Domain    string `yaml:"domain"`
	ACMEEmail string `yaml:"acme_email"`
}

// LimitsConfig sets per-client request limits.
type LimitsConfig struct {
	ChecksPerMinute int `yaml:"checks_per_minute"`
}

// Production reports whether the frontend runs in production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Env:      "development",
		LogLevel: "info",
		Web: WebConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Predict: PredictConfig{URL: "http://localhost:5000"},
		Limits:  LimitsConfig{ChecksPerMinute: 30},
	}
}

// Load builds the configuration. A missing .env or YAML file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("PHISHCHECK_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.Limits.ChecksPerMinute <= 0 {
		return fmt.Errorf("parse config %s: limits.checks_per_minute must be positive, got %d", path, c.Limits.ChecksPerMinute)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "PHISHCHECK_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Web.Port, "PORT")
	setString(&c.Predict.URL, "PREDICT_URL")
	setString(&c.TLS.Domain, "TLS_DOMAIN")
	setString(&c.TLS.ACMEEmail, "ACME_EMAIL")

	if v := os.Getenv("CHECK_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("CHECK_RATE_LIMIT: invalid value %q", v)
		}
		c.Limits.ChecksPerMinute = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.Web.ShutdownTimeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
