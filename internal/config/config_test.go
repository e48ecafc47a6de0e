package config

import (
	"testing"
	"time"
)

func TestLoadRequiresCoreSettings(t *testing.T) {
	base := map[string]string{
		"DATABASE_URL": "postgres://localhost/pustaka",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
	}

	for _, missing := range []string{"DATABASE_URL", "REDIS_URL", "JWT_SECRET"} {
		env := map[string]string{}
		for k, v := range base {
			env[k] = v
		}
		env[missing] = ""
		if _, err := LoadForTests(env); err == nil {
			t.Fatalf("expected error when %s is missing", missing)
		}
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/pustaka",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DefaultCurrency != "USD" {
		t.Fatalf("unexpected default currency: %q", cfg.DefaultCurrency)
	}
	if cfg.RoyaltyRateBps != 7000 {
		t.Fatalf("unexpected royalty rate: %d", cfg.RoyaltyRateBps)
	}
	if cfg.CartTTL != 168*time.Hour {
		t.Fatalf("unexpected cart ttl: %s", cfg.CartTTL)
	}
	if cfg.CheckoutRateLimit != "10-M" {
		t.Fatalf("unexpected checkout rate: %q", cfg.CheckoutRateLimit)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.HTTPAddr())
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost/pustaka",
		"REDIS_URL":        "redis://localhost:6379",
		"JWT_SECRET":       "secret",
		"TAX_BPS":          "850",
		"ROYALTY_RATE_BPS": "6500",
		"CART_TTL":         "24h",
		"PAYMENT_SANDBOX":  "true",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TaxBps != 850 {
		t.Fatalf("unexpected tax bps: %d", cfg.TaxBps)
	}
	if cfg.RoyaltyRateBps != 6500 {
		t.Fatalf("unexpected royalty rate: %d", cfg.RoyaltyRateBps)
	}
	if cfg.CartTTL != 24*time.Hour {
		t.Fatalf("unexpected cart ttl: %s", cfg.CartTTL)
	}
	if !cfg.PaymentSandbox {
		t.Fatal("expected sandbox mode")
	}
}
