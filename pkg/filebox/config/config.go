package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the signing secret used when JWT_SECRET is unset.
// Production refuses to start with it.
const DevJWTSecret = "filebox-dev-secret-change-in-production"

// Config holds the server settings read from the environment.
type Config struct {
	// Application
	AppEnv  string
	Port    string
	BaseURL string

	// Database (sqlite, postgres or mysql)
	DBDriver       string
	DBConnection   string
	DBMaxOpenConns int

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Access control: grant access when the caller's token identifier
	// contains the org id. Kept for data created by older clients.
	LegacyOrgSubstringMatch bool

	// Identity provider
	IdentityIssuer        string // Prefix of token identifiers ("issuer|subject")
	IdentityWebhookSecret string
	OIDCIssuer            string
	OIDCClientID          string
	OIDCClientSecret      string

	// Observability (optional)
	SentryDSN string

	// Storage ("s3" or "memory")
	StorageDriver     string
	S3Region          string
	S3Bucket          string
	S3AccessKey       string
	S3SecretKey       string
	S3Endpoint        string        // Optional: MinIO, R2, DO Spaces, etc.
	UploadURLExpiry   time.Duration // Lifetime of a presigned upload URL
	DownloadURLExpiry time.Duration // Lifetime of a presigned download URL
}

// Load reads configuration from the environment, loading a .env file first
// when one exists.
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "8080"),
		BaseURL: envString("BASE_URL", "http://localhost:8080"),

		DBDriver:       envString("DB_DRIVER", "sqlite"),
		DBConnection:   envString("DB_CONNECTION", "filebox.db"),
		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 25),

		JWTSecret: envString("JWT_SECRET", DevJWTSecret),
		JWTExpiry: envDuration("JWT_EXPIRY", 24*time.Hour),

		LegacyOrgSubstringMatch: envBool("LEGACY_ORG_SUBSTRING_MATCH", true),

		IdentityIssuer:        envString("IDENTITY_ISSUER", ""),
		IdentityWebhookSecret: envString("IDENTITY_WEBHOOK_SECRET", ""),
		OIDCIssuer:            envString("OIDC_ISSUER", ""),
		OIDCClientID:          envString("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:      envString("OIDC_CLIENT_SECRET", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		StorageDriver:     envString("STORAGE_DRIVER", "memory"),
		S3Region:          envString("S3_REGION", "us-east-1"),
		S3Bucket:          envString("S3_BUCKET", ""),
		S3AccessKey:       envString("S3_ACCESS_KEY", ""),
		S3SecretKey:       envString("S3_SECRET_KEY", ""),
		S3Endpoint:        envString("S3_ENDPOINT", ""),
		UploadURLExpiry:   envDuration("UPLOAD_URL_EXPIRY", 15*time.Minute),
		DownloadURLExpiry: envDuration("DOWNLOAD_URL_EXPIRY", time.Hour),
	}

	if cfg.IdentityIssuer == "" {
		cfg.IdentityIssuer = cfg.OIDCIssuer
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	switch c.StorageDriver {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.StorageDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == DevJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.StorageDriver == "memory" {
			return fmt.Errorf("STORAGE_DRIVER=memory is not allowed in production")
		}
		if c.IdentityWebhookSecret == "" {
			return fmt.Errorf("IDENTITY_WEBHOOK_SECRET must be set in production")
		}
	}
	return nil
}

// IsDevelopment reports whether the server runs with APP_ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction reports whether the server runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
