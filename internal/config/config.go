package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ecommerce-backend/internal/infrastructure/database"
	"ecommerce-backend/pkg/logger"
)

const (
	defaultJWTSecret     = "your-secret-key-change-in-production"
	defaultSessionSecret = "session-secret-change-in-production"
)

// Config holds the whole application configuration.
// It is populated from environment variables (optionally loaded from .env).
type Config struct {
	App      AppConfig
	Database *database.DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Session  SessionConfig
	Stripe   StripeConfig
	LMS      LMSConfig
	SMTP     SMTPConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
	// UserCacheTTL bounds how long user lookups stay cached.
	UserCacheTTL time.Duration
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

type SessionConfig struct {
	Secret string
	Secure bool
	MaxAge int // seconds
}

// StripeConfig configures the Stripe credit issuer.
// An empty SecretKey disables it.
type StripeConfig struct {
	SecretKey string
}

// LMSConfig points at the enrollment API used to revoke fulfillment.
type LMSConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type WorkerConfig struct {
	Concurrency int
}

// Load reads config from environment variables
func Load() (*Config, error) {
	dbConfig, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	userCacheTTL, err := time.ParseDuration(getEnv("REDIS_USER_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_USER_CACHE_TTL: %w", err)
	}

	lmsTimeout, err := time.ParseDuration(getEnv("LMS_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LMS_TIMEOUT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Ecommerce API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: dbConfig,
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			UserCacheTTL: userCacheTTL,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", defaultSessionSecret),
			Secure: getEnvBool("SESSION_SECURE", false),
			MaxAge: getEnvInt("SESSION_MAX_AGE", 86400*14),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		LMS: LMSConfig{
			URL:     getEnv("LMS_URL", "http://localhost:18000"),
			APIKey:  getEnv("LMS_API_KEY", ""),
			Timeout: lmsTimeout,
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvInt("SMTP_PORT", 1025),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@ecommerce.local"),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks settings that must not keep their development defaults in production.
func (c *Config) Validate() error {
	if c.App.Environment != "production" {
		return nil
	}

	if c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Session.Secret == defaultSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD must be set in production")
	}

	if c.Stripe.SecretKey == "" {
		logger.Warn("Stripe secret key not set, Stripe refunds will fail", nil)
	}
	if c.LMS.APIKey == "" {
		logger.Warn("LMS API key not set, fulfillment revocation will be rejected by the LMS", nil)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
