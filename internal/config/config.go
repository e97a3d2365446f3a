// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig
	Shopify  ShopifyConfig
	RTO      RTOConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	Port     string
}

// Development reports whether the dev logger should be used.
func (c AppConfig) Development() bool {
	return c.Env == "development"
}

type ShopifyConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	CallTimeout time.Duration
	RateLimit   float64
	RateBurst   int
}

type RTOConfig struct {
	Workers       int
	DefaultReason string
	DefaultNote   string
}

type DatabaseConfig struct {
	// URL enables the idempotency store when set.
	URL            string
	IdempotencyTTL time.Duration
}

type KafkaConfig struct {
	// Brokers is a comma separated list; empty disables result events.
	Brokers string
	Topic   string
}

// Load reads .env files (missing files are ignored, existing variables win)
// and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	p := &parser{}
	cfg := &Config{
		App: AppConfig{
			Env:      p.str("APP_ENV", "development"),
			LogLevel: p.str("LOG_LEVEL", "info"),
			Port:     p.str("APP_PORT", "8080"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:  p.str("SHOPIFY_SHOP_DOMAIN", ""),
			AccessToken: p.str("SHOPIFY_ACCESS_TOKEN", ""),
			APIVersion:  p.str("SHOPIFY_API_VERSION", "2025-01"),
			CallTimeout: p.duration("SHOPIFY_CALL_TIMEOUT", 20*time.Second),
			RateLimit:   p.number("SHOPIFY_RATE_LIMIT", 2),
			RateBurst:   p.integer("SHOPIFY_RATE_BURST", 4),
		},
		RTO: RTOConfig{
			Workers:       p.integer("RTO_WORKERS", 1),
			DefaultReason: p.str("RTO_DEFAULT_REASON", "OTHER"),
			DefaultNote:   p.str("RTO_DEFAULT_NOTE", "Returned to origin"),
		},
		Database: DatabaseConfig{
			URL:            p.str("DATABASE_URL", ""),
			IdempotencyTTL: p.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: p.str("KAFKA_BROKERS", ""),
			Topic:   p.str("KAFKA_RESULTS_TOPIC", "rto.job-results"),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidatePlatform checks the settings needed to talk to Shopify.
func (c *Config) ValidatePlatform() error {
	var errs []error
	if c.Shopify.ShopDomain == "" {
		errs = append(errs, errors.New("SHOPIFY_SHOP_DOMAIN is required"))
	}
	if c.Shopify.AccessToken == "" {
		errs = append(errs, errors.New("SHOPIFY_ACCESS_TOKEN is required"))
	}
	if c.RTO.Workers < 1 {
		errs = append(errs, fmt.Errorf("RTO_WORKERS must be at least 1, got %d", c.RTO.Workers))
	}
	return errors.Join(errs...)
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) number(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
