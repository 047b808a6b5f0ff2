package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/travel")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.DB.Driver != "mysql" {
		t.Fatalf("DB.Driver = %q", cfg.DB.Driver)
	}
	if cfg.Chapa.BaseURL != "https://api.chapa.co/v1" || cfg.Chapa.Currency != "ETB" {
		t.Fatalf("unexpected chapa defaults: %+v", cfg.Chapa)
	}
	if cfg.Chapa.SecretKey != "" {
		t.Fatalf("secret key should default to empty")
	}
	if cfg.Chapa.Timeout != 10*time.Second || cfg.Chapa.MaxRetries != 3 {
		t.Fatalf("unexpected chapa timeouts: %+v", cfg.Chapa)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("APP_BASE_URL", "https://travel.example.com/")
	t.Setenv("CHAPA_SECRET_KEY", "CHASECK_TEST")
	t.Setenv("CHAPA_TIMEOUT", "3s")
	t.Setenv("CHAPA_MAX_RETRIES", "0")
	t.Setenv("CHAPA_CURRENCY", "usd")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("DB.Driver = %q", cfg.DB.Driver)
	}
	if cfg.BaseURL != "https://travel.example.com" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Chapa.SecretKey != "CHASECK_TEST" || cfg.Chapa.Timeout != 3*time.Second || cfg.Chapa.MaxRetries != 0 {
		t.Fatalf("unexpected chapa config: %+v", cfg.Chapa)
	}
	if cfg.Chapa.Currency != "USD" {
		t.Fatalf("Currency = %q", cfg.Chapa.Currency)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.Outbox.BatchSize != 20 {
		t.Fatalf("bad int should fall back to default, got %d", cfg.Outbox.BatchSize)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing dsn":     {"DB_DSN": "", "JWT_SECRET": "x"},
		"missing jwt":     {"DB_DSN": "x", "JWT_SECRET": ""},
		"unknown driver":  {"DB_DSN": "x", "JWT_SECRET": "x", "DB_DRIVER": "oracle"},
		"s3 without conf": {"DB_DSN": "x", "JWT_SECRET": "x", "STORAGE_DRIVER": "s3"},
		"bad tls mode":    {"DB_DSN": "x", "JWT_SECRET": "x", "SMTP_TLS_MODE": "ssl3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), "invalid config") {
				t.Fatalf("expected invalid config error, got %v", err)
			}
		})
	}
}
