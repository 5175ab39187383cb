package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want 12h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.RememberTTL != 720*time.Hour {
		t.Errorf("Auth.RememberTTL = %v, want 720h", cfg.Auth.RememberTTL)
	}
	if cfg.RateLimit.LoginMax != 5 {
		t.Errorf("RateLimit.LoginMax = %d, want 5", cfg.RateLimit.LoginMax)
	}
	if cfg.RateLimit.LoginWindow != time.Minute {
		t.Errorf("RateLimit.LoginWindow = %v, want 1m", cfg.RateLimit.LoginWindow)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want 5432", cfg.Postgres.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want localhost:6379", cfg.Redis.Addr)
	}
}

func TestAppConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("RATE_LIMIT_LOGIN_MAX", "3")
	t.Setenv("RATE_LIMIT_LOGIN_WINDOW", "10s")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "cache.internal:6380")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr = %q, want :9090", cfg.HTTP.Addr)
	}
	if cfg.Auth.SessionTTL != 30*time.Minute {
		t.Errorf("Auth.SessionTTL = %v, want 30m", cfg.Auth.SessionTTL)
	}
	if cfg.RateLimit.LoginMax != 3 {
		t.Errorf("RateLimit.LoginMax = %d, want 3", cfg.RateLimit.LoginMax)
	}
	if cfg.RateLimit.LoginWindow != 10*time.Second {
		t.Errorf("RateLimit.LoginWindow = %v, want 10s", cfg.RateLimit.LoginWindow)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q, want db.internal", cfg.Postgres.Host)
	}
	if cfg.Redis.Addr != "cache.internal:6380" {
		t.Errorf("Redis.Addr = %q, want cache.internal:6380", cfg.Redis.Addr)
	}
}

func TestSanitizeClampsInvalidValues(t *testing.T) {
	cfg := AppConfig{
		Auth:      AuthConfig{SessionTTL: -time.Hour, RememberTTL: 0},
		RateLimit: RateLimitConfig{LoginMax: -1, LoginWindow: 0},
	}
	cfg.Sanitize()

	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want default 12h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.RememberTTL != 720*time.Hour {
		t.Errorf("RememberTTL = %v, want default 720h", cfg.Auth.RememberTTL)
	}
	if cfg.RateLimit.LoginMax != 5 {
		t.Errorf("LoginMax = %d, want default 5", cfg.RateLimit.LoginMax)
	}
	if cfg.RateLimit.LoginWindow != time.Minute {
		t.Errorf("LoginWindow = %v, want default 1m", cfg.RateLimit.LoginWindow)
	}
}

func TestDetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Error("IsDev = false, want true with NODE_ENV=development")
	}
}
