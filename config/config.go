package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort string
	ServerHost string
	AppURL     string

	// Database configuration
	DBDriver          string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	SQLitePath        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	AutoMigrate       bool

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Session configuration
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	CORSAllowedOrigins []string

	// Email configuration
	EmailProvider string
	EmailFrom     string
	EmailFromName string
	AdminEmail    string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SESRegion     string

	// Object storage for recipe images
	S3Bucket        string
	S3Region        string
	S3PublicBaseURL string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string

	// Rate limits per client IP
	LoginRateLimit  int
	ResetRateLimit  int
	RateLimitWindow time.Duration
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the address the HTTP server listens on
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// StorageEnabled reports whether recipe image uploads can be served
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	if err := load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(cfg *Config) error {
	var err error

	cfg.ServerPort = value("SERVER_PORT", "server_port", "8080")
	cfg.ServerHost = value("SERVER_HOST", "server_host", "")
	cfg.AppURL = strings.TrimRight(value("APP_URL", "app_url", "http://localhost:3000"), "/")

	cfg.DBDriver = value("DB_DRIVER", "db_driver", "postgres")
	cfg.DBHost = value("DB_HOST", "db_host", "localhost")
	cfg.DBPort = value("DB_PORT", "db_port", "5432")
	cfg.DBUser = value("DB_USER", "db_user", "postgres")
	cfg.DBPassword = value("DB_PASSWORD", "db_password", "postgres")
	cfg.DBName = value("DB_NAME", "db_name", "gastro_elite")
	cfg.DBSSLMode = value("DB_SSL_MODE", "db_ssl_mode", "disable")
	cfg.SQLitePath = value("SQLITE_PATH", "sqlite_path", "gastro-elite.db")
	if cfg.DBMaxOpenConns, err = intValue("DB_MAX_OPEN_CONNS", 25); err != nil {
		return err
	}
	if cfg.DBMaxIdleConns, err = intValue("DB_MAX_IDLE_CONNS", 25); err != nil {
		return err
	}
	if cfg.DBConnMaxLifetime, err = durationValue("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return err
	}
	if cfg.AutoMigrate, err = boolValue("AUTO_MIGRATE", cfg.Environment != Production); err != nil {
		return err
	}

	cfg.RedisURL = value("REDIS_URL", "redis_url", "")
	cfg.RedisHost = value("REDIS_HOST", "redis_host", "localhost")
	cfg.RedisPort = value("REDIS_PORT", "redis_port", "6379")
	cfg.RedisPassword = value("REDIS_PASSWORD", "redis_password", "")
	cfg.RedisDB = 0 // This is a constant, not a secret

	cfg.JWTSecret = value("JWT_SECRET", "jwt_secret", "")
	if cfg.JWTSecret == "" && cfg.Environment != Production {
		cfg.JWTSecret = "development-secret"
	}
	if cfg.TokenTTL, err = durationValue("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return err
	}
	if cfg.CookieSecure, err = boolValue("COOKIE_SECURE", cfg.Environment == Production); err != nil {
		return err
	}

	cfg.CORSAllowedOrigins = splitList(value("CORS_ALLOWED_ORIGINS", "", cfg.AppURL))

	cfg.EmailProvider = value("EMAIL_PROVIDER", "email_provider", "")
	cfg.EmailFrom = value("EMAIL_FROM", "email_from", "no-reply@gastro-elite.com")
	cfg.EmailFromName = value("EMAIL_FROM_NAME", "email_from_name", "Gastro-Elite")
	cfg.AdminEmail = value("ADMIN_EMAIL", "admin_email", "")
	cfg.SMTPHost = value("SMTP_HOST", "smtp_host", "")
	cfg.SMTPPort = value("SMTP_PORT", "smtp_port", "587")
	cfg.SMTPUsername = value("SMTP_USERNAME", "smtp_username", "")
	cfg.SMTPPassword = value("SMTP_PASSWORD", "smtp_password", "")
	cfg.SESRegion = value("SES_REGION", "ses_region", "eu-west-1")
	if cfg.EmailProvider == "" {
		cfg.EmailProvider = "log"
		if cfg.SMTPHost != "" {
			cfg.EmailProvider = "smtp"
		}
	}

	cfg.S3Bucket = value("S3_BUCKET_NAME", "s3_bucket_name", "")
	cfg.S3Region = value("AWS_REGION", "aws_region", "eu-west-1")
	cfg.S3PublicBaseURL = strings.TrimRight(value("S3_PUBLIC_BASE_URL", "", ""), "/")
	cfg.S3Endpoint = value("S3_ENDPOINT", "", "")
	cfg.S3AccessKey = value("S3_ACCESS_KEY_ID", "s3_access_key_id", "")
	cfg.S3SecretKey = value("S3_SECRET_ACCESS_KEY", "s3_secret_access_key", "")

	if cfg.LoginRateLimit, err = intValue("LOGIN_RATE_LIMIT", 10); err != nil {
		return err
	}
	if cfg.ResetRateLimit, err = intValue("RESET_RATE_LIMIT", 5); err != nil {
		return err
	}
	if cfg.RateLimitWindow, err = durationValue("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return err
	}

	return nil
}

// value resolves a setting from its environment variable, then its Docker
// secret, then the fallback.
func value(envVar, secret, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	if secret != "" {
		if v := readSecret(secret); v != "" {
			return v
		}
	}
	return fallback
}

func intValue(envVar string, fallback int) (int, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envVar, err)
	}
	return v, nil
}

func boolValue(envVar string, fallback bool) (bool, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", envVar, err)
	}
	return v, nil
}

func durationValue(envVar string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envVar, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
