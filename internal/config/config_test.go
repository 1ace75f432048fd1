package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_EXPIRY_HOURS", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreDriverPostgres)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_UPLOAD_SIZE_MB", "5")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.LoginRatePerMinute != 10 {
		t.Errorf("LoginRatePerMinute = %d, want fallback 10", cfg.LoginRatePerMinute)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKey.UserSessionKey(42); got != "session:user:42" {
		t.Errorf("UserSessionKey = %q", got)
	}
	if got := CacheKey.EventsChannel(); got != "classroom:events" {
		t.Errorf("EventsChannel = %q", got)
	}
}
