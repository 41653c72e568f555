package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	HR        HRConfig
	Audit     AuditConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Outbound  OutboundConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds verification settings for tokens issued by the external
// HR auth service. This service never issues tokens itself.
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// HRConfig describes the external HR data source. SourceType selects between
// the live HTTP service ("http") and a locally materialized read cache
// ("sqlite") of the same employee shape.
type HRConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	SourceType string
	CachePath  string
}

type AuditConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Window time.Duration
	Max    int
}

// OutboundConfig tunes the async dispatcher used for audit events and the
// HR disbursement webhook.
type OutboundConfig struct {
	QueueSize  int
	MaxRetries int
	Backoff    time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "ftms"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	hrTimeout, err := time.ParseDuration(getEnv("HR_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HR_API_TIMEOUT: %w", err)
	}

	config.HR = HRConfig{
		BaseURL:    getEnv("HR_API_BASE_URL", ""),
		APIKey:     getEnv("HR_API_KEY", ""),
		Timeout:    hrTimeout,
		SourceType: getEnv("HR_SOURCE_TYPE", "http"),
		CachePath:  getEnv("HR_CACHE_PATH", "hr_cache.db"),
	}

	auditTimeout, err := time.ParseDuration(getEnv("AUDIT_API_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_API_TIMEOUT: %w", err)
	}

	config.Audit = AuditConfig{
		BaseURL: getEnv("AUDIT_API_BASE_URL", ""),
		APIKey:  getEnv("AUDIT_API_KEY", ""),
		Timeout: auditTimeout,
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	rateWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	rateMax, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX: %w", err)
	}

	config.RateLimit = RateLimitConfig{
		Window: rateWindow,
		Max:    rateMax,
	}

	queueSize, err := strconv.Atoi(getEnv("OUTBOUND_QUEUE_SIZE", "256"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOUND_QUEUE_SIZE: %w", err)
	}
	maxRetries, err := strconv.Atoi(getEnv("OUTBOUND_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOUND_MAX_RETRIES: %w", err)
	}
	backoff, err := time.ParseDuration(getEnv("OUTBOUND_BACKOFF", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOUND_BACKOFF: %w", err)
	}

	config.Outbound = OutboundConfig{
		QueueSize:  queueSize,
		MaxRetries: maxRetries,
		Backoff:    backoff,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.HR.BaseURL == "" {
		return fmt.Errorf("HR_API_BASE_URL is required")
	}
	if c.HR.APIKey == "" {
		return fmt.Errorf("HR_API_KEY is required")
	}
	if c.HR.SourceType != "http" && c.HR.SourceType != "sqlite" {
		return fmt.Errorf("HR_SOURCE_TYPE must be 'http' or 'sqlite'")
	}
	if c.Audit.BaseURL == "" {
		return fmt.Errorf("AUDIT_API_BASE_URL is required")
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}
