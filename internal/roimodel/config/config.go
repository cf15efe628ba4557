// Package config loads the service configuration from a YAML file,
// a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPPort          = 8080
	defaultTopic             = "roi-model-events"
	defaultCalculatorTimeout = 30 * time.Second
	defaultLookupTimeout     = 10 * time.Second
	defaultLookupCacheSize   = 1024
	defaultLookupCacheTTL    = time.Hour
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort          int           `yaml:"HTTP_PORT"`
	DBHost            string        `yaml:"DB_HOST"`
	DBPort            int           `yaml:"DB_PORT"`
	DBUser            string        `yaml:"DB_USER"`
	DBPassword        string        `yaml:"DB_PASSWORD"`
	DBName            string        `yaml:"DB_NAME"`
	DBSSLMode         string        `yaml:"DB_SSLMODE"`
	KafkaBrokers      []string      `yaml:"KAFKA_BROKERS"`
	Topic             string        `yaml:"TOPIC"`
	JWTSecret         string        `yaml:"JWT_SECRET"`
	CalculatorURL     string        `yaml:"CALCULATOR_URL"`
	CalculatorTimeout time.Duration `yaml:"CALCULATOR_TIMEOUT"`
	LookupURL         string        `yaml:"LOOKUP_URL"`
	LookupTimeout     time.Duration `yaml:"LOOKUP_TIMEOUT"`
	LookupCacheSize   int           `yaml:"LOOKUP_CACHE_SIZE"`
	LookupCacheTTL    time.Duration `yaml:"LOOKUP_CACHE_TTL"`
	RedisAddr         string        `yaml:"REDIS_ADDR"`
}

// Load reads the YAML file at path (skipped when path is empty), loads a .env
// file from the working directory when present, and applies environment
// overrides on top.
func Load(path string) (*Config, error) {
	cfg := &Config{
		HTTPPort:          defaultHTTPPort,
		DBPort:            5432,
		DBSSLMode:         "disable",
		Topic:             defaultTopic,
		CalculatorTimeout: defaultCalculatorTimeout,
		LookupTimeout:     defaultLookupTimeout,
		LookupCacheSize:   defaultLookupCacheSize,
		LookupCacheTTL:    defaultLookupCacheTTL,
	}

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString("DB_HOST", &c.DBHost)
	setString("DB_USER", &c.DBUser)
	setString("DB_PASSWORD", &c.DBPassword)
	setString("DB_NAME", &c.DBName)
	setString("DB_SSLMODE", &c.DBSSLMode)
	setString("TOPIC", &c.Topic)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("CALCULATOR_URL", &c.CalculatorURL)
	setString("LOOKUP_URL", &c.LookupURL)
	setString("REDIS_ADDR", &c.RedisAddr)

	errs = append(errs,
		setInt("HTTP_PORT", &c.HTTPPort),
		setInt("DB_PORT", &c.DBPort),
		setInt("LOOKUP_CACHE_SIZE", &c.LookupCacheSize),
		setDuration("CALCULATOR_TIMEOUT", &c.CalculatorTimeout),
		setDuration("LOOKUP_TIMEOUT", &c.LookupTimeout),
		setDuration("LOOKUP_CACHE_TTL", &c.LookupCacheTTL),
	)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = splitList(v)
	}

	return errors.Join(errs...)
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("invalid HTTP_PORT %d: must be between 1 and 65535", c.HTTPPort))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.DBName == "" {
		problems = append(problems, "DB_NAME is required")
	}
	if c.CalculatorURL == "" {
		problems = append(problems, "CALCULATOR_URL is required")
	}
	if c.LookupURL == "" {
		problems = append(problems, "LOOKUP_URL is required")
	}
	if len(c.KafkaBrokers) == 0 {
		problems = append(problems, "KAFKA_BROKERS must list at least one broker")
	}
	if c.LookupTimeout < 0 {
		problems = append(problems, "LOOKUP_TIMEOUT cannot be negative")
	}
	if c.LookupCacheSize < 0 {
		problems = append(problems, "LOOKUP_CACHE_SIZE cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func setString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
