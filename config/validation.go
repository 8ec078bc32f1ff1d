package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	supportedDrivers   = []string{"postgres", "sqlite"}
	supportedProviders = []string{"smtp", "ses", "log"}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []string
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg}.Error())
	}

	if !contains(supportedDrivers, cfg.DBDriver) {
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}
	if !contains(supportedProviders, cfg.EmailProvider) {
		add("EMAIL_PROVIDER", fmt.Sprintf("unsupported provider %q", cfg.EmailProvider))
	}
	if cfg.EmailProvider == "smtp" && cfg.SMTPHost == "" {
		add("SMTP_HOST", "required when EMAIL_PROVIDER is smtp")
	}
	if cfg.TokenTTL <= 0 {
		add("TOKEN_TTL", "must be positive")
	}

	// Sensitive values must be explicit outside development and test
	if cfg.Environment == Production || cfg.Environment == CI {
		if cfg.JWTSecret == "" {
			add("JWT_SECRET", "jwt_secret secret is required")
		}
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			add("DB_PASSWORD", "db_password secret is required")
		}
	}
	if cfg.Environment == Production && cfg.EmailProvider == "log" {
		add("EMAIL_PROVIDER", "log provider is not allowed in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
