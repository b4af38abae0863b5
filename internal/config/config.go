// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Enrichment services
	GeoAPIURL     string        // Geolocation lookup base URL
	FraudAPIURL   string        // Fraud signal lookup base URL
	FraudAPIKey   string        // API key for the fraud signal service
	EnrichTimeout time.Duration // Per-call timeout for outbound enrichment requests

	// Model artifacts
	ModelPath  string // Logistic regression weights
	ScalerPath string // Paired feature scaler

	// Email alerts (SMTP relay)
	SMTPHost       string
	SMTPPort       int
	EmailSender    string
	EmailPassword  string
	EmailRecipient string

	// SMS alerts
	SMSAccountSID string
	SMSAuthToken  string
	SMSAPIURL     string // Provider base URL (default: Twilio)
	SMSFrom       string
	SMSTo         string

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for tracing (optional)
	RateLimitRPM int
}

// Defaults for local development
const (
	DefaultPort          = "8080"
	DefaultEnv           = "development"
	DefaultLogLevel      = "info"
	DefaultGeoAPIURL     = "https://ipinfo.io"
	DefaultFraudAPIURL   = "https://www.ipqualityscore.com/api/json/ip"
	DefaultSMSAPIURL     = "https://api.twilio.com/2010-04-01"
	DefaultSMTPHost      = "smtp.gmail.com"
	DefaultSMTPPort      = 587
	DefaultModelPath     = "artifacts/model.json"
	DefaultScalerPath    = "artifacts/scaler.json"
	DefaultRateLimit     = 120
	DefaultEnrichTimeout = 10 * time.Second
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", DefaultPort),
		Env:            getEnv("ENV", DefaultEnv),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:    os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		GeoAPIURL:      getEnv("GEO_API_URL", DefaultGeoAPIURL),
		FraudAPIURL:    getEnv("FRAUD_API_URL", DefaultFraudAPIURL),
		FraudAPIKey:    os.Getenv("FRAUD_API_KEY"), // Required, no default
		EnrichTimeout:  getEnvDuration("ENRICH_TIMEOUT", DefaultEnrichTimeout),
		ModelPath:      getEnv("MODEL_PATH", DefaultModelPath),
		ScalerPath:     getEnv("SCALER_PATH", DefaultScalerPath),
		SMTPHost:       getEnv("SMTP_HOST", DefaultSMTPHost),
		SMTPPort:       getEnvInt("SMTP_PORT", DefaultSMTPPort),
		EmailSender:    os.Getenv("EMAIL_SENDER"),
		EmailPassword:  os.Getenv("EMAIL_PASSWORD"),
		EmailRecipient: os.Getenv("EMAIL_RECEIVER"),
		SMSAccountSID:  os.Getenv("SMS_ACCOUNT_SID"),
		SMSAuthToken:   os.Getenv("SMS_AUTH_TOKEN"),
		SMSAPIURL:      getEnv("SMS_API_URL", DefaultSMSAPIURL),
		SMSFrom:        os.Getenv("SMS_FROM_NUMBER"),
		SMSTo:          os.Getenv("SMS_ALERT_NUMBER"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.FraudAPIKey == "" {
		return fmt.Errorf("FRAUD_API_KEY is required")
	}
	if c.GeoAPIURL == "" {
		return fmt.Errorf("GEO_API_URL is required")
	}
	if c.FraudAPIURL == "" {
		return fmt.Errorf("FRAUD_API_URL is required")
	}
	if c.EnrichTimeout <= 0 {
		return fmt.Errorf("ENRICH_TIMEOUT must be positive")
	}
	return nil
}

// EmailEnabled reports whether the email alert channel is configured.
func (c *Config) EmailEnabled() bool {
	return c.EmailSender != "" && c.EmailRecipient != ""
}

// SMSEnabled reports whether the SMS alert channel is configured.
func (c *Config) SMSEnabled() bool {
	return c.SMSAccountSID != "" && c.SMSFrom != "" && c.SMSTo != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
