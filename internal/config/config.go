// Package config loads pantry settings from an optional YAML file, a .env
// file and PANTRY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string          `yaml:"port"`
	DatabaseURL string          `yaml:"database_url"`
	LogLevel    string          `yaml:"log_level"`
	LogFormat   string          `yaml:"log_format"`
	JWTSecret   string          `yaml:"jwt_secret"`
	JWTIssuer   string          `yaml:"jwt_issuer"`
	Tracing     TracingConfig   `yaml:"tracing"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	// TrustProxyHeaders is only safe behind a proxy that overwrites
	// X-Forwarded-For.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

func Defaults() Config {
	return Config{
		Port:        "8080",
		DatabaseURL: "pantry.db",
		LogLevel:    "info",
		LogFormat:   "text",
		JWTIssuer:   "pantry",
		Tracing: TracingConfig{
			Exporter:    "stdout",
			SampleRatio: 1,
		},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
		},
	}
}

// Load builds a Config. An empty path skips the YAML file. A missing .env
// file is not an error; variables already set in the environment win over it.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PANTRY_PORT")
	setString(&cfg.DatabaseURL, "PANTRY_DATABASE_URL")
	setString(&cfg.LogLevel, "PANTRY_LOG_LEVEL")
	setString(&cfg.LogFormat, "PANTRY_LOG_FORMAT")
	setString(&cfg.JWTSecret, "PANTRY_JWT_SECRET")
	setString(&cfg.JWTIssuer, "PANTRY_JWT_ISSUER")
	setString(&cfg.Tracing.Exporter, "PANTRY_TRACING_EXPORTER")
	setString(&cfg.Tracing.Endpoint, "PANTRY_TRACING_ENDPOINT")

	for key, dst := range map[string]*bool{
		"PANTRY_TRACING_ENABLED":     &cfg.Tracing.Enabled,
		"PANTRY_TRACING_INSECURE":    &cfg.Tracing.Insecure,
		"PANTRY_TRUST_PROXY_HEADERS": &cfg.TrustProxyHeaders,
	} {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	if v := os.Getenv("PANTRY_TRACING_SAMPLE_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PANTRY_TRACING_SAMPLE_RATIO: %w", err)
		}
		cfg.Tracing.SampleRatio = f
	}
	if v := os.Getenv("PANTRY_RATE_LIMIT_REQUESTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PANTRY_RATE_LIMIT_REQUESTS: %w", err)
		}
		cfg.RateLimit.Requests = n
	}
	if v := os.Getenv("PANTRY_RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PANTRY_RATE_LIMIT_WINDOW: %w", err)
		}
		cfg.RateLimit.Window = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate reports the first setting that would keep the server from
// starting safely.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("jwt_secret is required")
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("unknown tracing exporter %q", c.Tracing.Exporter)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate_limit requests and window must be positive")
	}
	return nil
}
