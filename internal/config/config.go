package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
	JWTClockSkew time.Duration

	DefaultCurrency string
	TaxBps          int64
	RoyaltyRateBps  int64
	RoyaltyLockTTL  time.Duration

	CartTTL         time.Duration
	IdempotencyTTL  time.Duration
	CatalogCacheTTL time.Duration

	PaymentProvider      string
	PaymentSigningSecret string
	PaymentBaseURL       string
	PaymentSandbox       bool
	WebhookTolerance     time.Duration
	WebhookReplayTTL     time.Duration

	CheckoutRateLimit string
	PaymentRateLimit  string

	OTLPEndpoint string

	EmailEnabled bool
	EmailFrom    string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:    k.String("JWT_SECRET"),
		JWTIssuer:    valueOrDefault(k.String("JWT_ISSUER"), "pustaka"),
		JWTAudience:  valueOrDefault(k.String("JWT_AUDIENCE"), "pustaka-api"),
		JWTClockSkew: parseDuration(k.String("JWT_CLOCK_SKEW"), "30s"),

		DefaultCurrency: valueOrDefault(k.String("DEFAULT_CURRENCY"), "USD"),
		TaxBps:          parseInt64(k.String("TAX_BPS"), 0),
		RoyaltyRateBps:  parseInt64(k.String("ROYALTY_RATE_BPS"), 7000),
		RoyaltyLockTTL:  parseDuration(k.String("ROYALTY_LOCK_TTL"), "30s"),

		CartTTL:         parseDuration(k.String("CART_TTL"), "168h"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),

		PaymentProvider:      valueOrDefault(k.String("PAYMENT_PROVIDER"), "stripe"),
		PaymentSigningSecret: k.String("PAYMENT_SIGNING_SECRET"),
		PaymentBaseURL:       k.String("PAYMENT_BASE_URL"),
		PaymentSandbox:       parseBool(k.String("PAYMENT_SANDBOX")),
		WebhookTolerance:     parseDuration(k.String("WEBHOOK_TOLERANCE"), "5m"),
		WebhookReplayTTL:     parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "48h"),

		CheckoutRateLimit: valueOrDefault(k.String("CHECKOUT_RATE_LIMIT"), "10-M"),
		PaymentRateLimit:  valueOrDefault(k.String("PAYMENT_RATE_LIMIT"), "30-M"),

		OTLPEndpoint: k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),

		EmailEnabled: parseBool(k.String("EMAIL_ENABLED")),
		EmailFrom:    valueOrDefault(k.String("EMAIL_FROM"), "no-reply@pustaka.example"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
