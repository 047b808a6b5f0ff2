package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr     string
	BaseURL  string
	LogLevel slog.Level

	DB      DBConfig
	JWT     JWTConfig
	Chapa   ChapaConfig
	SMTP    SMTPConfig
	Mail    MailConfig
	Outbox  OutboxConfig
	Storage StorageConfig
}

type DBConfig struct {
	Driver          string // mysql|postgres|sqlite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// ChapaConfig is handed to the gateway client at construction.
// An empty SecretKey is allowed at boot; initiation then fails with a 500.
type ChapaConfig struct {
	SecretKey  string
	BaseURL    string
	Currency   string
	Timeout    time.Duration
	MaxRetries int
}

type SMTPConfig struct {
	Host          string
	Port          string
	User          string
	Pass          string
	TLSMode       string // none|starttls|tls
	SkipVerifyTLS bool
}

type MailConfig struct {
	From     string
	FromName string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Lease        time.Duration
}

type StorageConfig struct {
	Driver          string // local|s3
	LocalDir        string
	LocalURLPrefix  string
	S3Region        string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string
}

func Load() (Config, error) {
	cfg := Config{
		Addr:     getEnv("APP_ADDR", ":8080"),
		BaseURL:  strings.TrimRight(getEnv("APP_BASE_URL", ""), "/"),
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
		DB: DBConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			DSN:             getEnv("DB_DSN", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Chapa: ChapaConfig{
			SecretKey:  getEnv("CHAPA_SECRET_KEY", ""),
			BaseURL:    strings.TrimRight(getEnv("CHAPA_BASE_URL", "https://api.chapa.co/v1"), "/"),
			Currency:   strings.ToUpper(getEnv("CHAPA_CURRENCY", "ETB")),
			Timeout:    getEnvDuration("CHAPA_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvInt("CHAPA_MAX_RETRIES", 3),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", "localhost"),
			Port:          getEnv("SMTP_PORT", "1025"),
			User:          getEnv("SMTP_USER", ""),
			Pass:          getEnv("SMTP_PASS", ""),
			TLSMode:       strings.ToLower(getEnv("SMTP_TLS_MODE", "none")),
			SkipVerifyTLS: getEnvBool("SMTP_SKIP_VERIFY", false),
		},
		Mail: MailConfig{
			From:     getEnv("EMAIL_FROM", "no-reply@alxtravel.local"),
			FromName: getEnv("EMAIL_FROM_NAME", "ALX Travel"),
		},
		Outbox: OutboxConfig{
			PollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 20),
			MaxAttempts:  getEnvInt("OUTBOX_MAX_ATTEMPTS", 8),
			Lease:        getEnvDuration("OUTBOX_LEASE", time.Minute),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			LocalDir:        getEnv("LOCAL_UPLOAD_DIR", "./storage/uploads"),
			LocalURLPrefix:  getEnv("LOCAL_UPLOAD_URL_PREFIX", "/uploads"),
			S3Region:        getEnv("S3_REGION", ""),
			S3Bucket:        getEnv("S3_BUCKET", ""),
			S3Prefix:        getEnv("S3_PREFIX", "uploads"),
			S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid config: unknown DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("invalid config: DB_DSN is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("invalid config: JWT_SECRET is required")
	}
	if c.Chapa.MaxRetries < 0 {
		return fmt.Errorf("invalid config: CHAPA_MAX_RETRIES must be >= 0")
	}
	switch c.SMTP.TLSMode {
	case "none", "starttls", "tls":
	default:
		return fmt.Errorf("invalid config: unknown SMTP_TLS_MODE %q", c.SMTP.TLSMode)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Region == "" || c.Storage.S3Bucket == "" || c.Storage.S3PublicBaseURL == "" {
			return fmt.Errorf("invalid config: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
	default:
		return fmt.Errorf("invalid config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
