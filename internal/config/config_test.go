package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RateLimitMax != 5 {
		t.Errorf("expected default rate limit 5, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow != time.Hour {
		t.Errorf("expected default window 1h, got %s", cfg.RateLimitWindow)
	}
	if cfg.HoneypotField != "website_url" {
		t.Errorf("expected default honeypot field website_url, got %s", cfg.HoneypotField)
	}
	if cfg.BudgetRefPrefix != "ARYN" {
		t.Errorf("expected default budget prefix ARYN, got %s", cfg.BudgetRefPrefix)
	}
	if !cfg.NotificationsEnabled {
		t.Error("expected notifications enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CONTACT_RATE_LIMIT_MAX", "3")
	t.Setenv("CONTACT_RATE_LIMIT_WINDOW", "30m")
	t.Setenv("LEAD_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://arynstal.es, https://www.arynstal.es")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.RateLimitMax != 3 {
		t.Errorf("expected rate limit 3, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow != 30*time.Minute {
		t.Errorf("expected window 30m, got %s", cfg.RateLimitWindow)
	}
	if cfg.NotificationsEnabled {
		t.Error("expected notifications disabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %d", len(cfg.CORSAllowedOrigins))
	}
	if cfg.CORSAllowedOrigins[1] != "https://www.arynstal.es" {
		t.Errorf("unexpected origin %q", cfg.CORSAllowedOrigins[1])
	}
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("CONTACT_RATE_LIMIT_MAX", "not-a-number")
	cfg := Load()
	if cfg.RateLimitMax != 5 {
		t.Errorf("expected fallback to default 5, got %d", cfg.RateLimitMax)
	}
}
