package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	CompanyName   string
	DatabaseURL   string

	// Redis (rate-limit counter store)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Public intake form
	RateLimitMax       int
	RateLimitWindow    time.Duration
	HoneypotField      string
	MaxUploadMemory    int64
	CORSAllowedOrigins []string

	// Notifications
	NotificationsEnabled     bool
	SendCustomerConfirmation bool
	AdminEmail               string

	// SendGrid email transport
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// AWS (SES email transport, S3 media storage)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	SESFromEmail        string
	MediaBucket         string
	MediaDir            string

	// Budgets
	BudgetRefPrefix string

	// Admin API
	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		CompanyName:   getEnv("COMPANY_NAME", "Arynstal"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RateLimitMax:       getEnvAsInt("CONTACT_RATE_LIMIT_MAX", 5),
		RateLimitWindow:    getEnvAsDuration("CONTACT_RATE_LIMIT_WINDOW", time.Hour),
		HoneypotField:      getEnv("CONTACT_HONEYPOT_FIELD", "website_url"),
		MaxUploadMemory:    int64(getEnvAsInt("CONTACT_MAX_UPLOAD_MEMORY_MB", 32)) << 20,
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),

		NotificationsEnabled:     getEnvAsBool("LEAD_NOTIFICATIONS_ENABLED", true),
		SendCustomerConfirmation: getEnvAsBool("LEAD_SEND_CUSTOMER_CONFIRMATION", true),
		AdminEmail:               getEnv("LEAD_ADMIN_EMAIL", "info@arynstal.es"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Arynstal"),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		MediaBucket:         getEnv("MEDIA_BUCKET", ""),
		MediaDir:            getEnv("MEDIA_DIR", "media"),

		BudgetRefPrefix: getEnv("BUDGET_REF_PREFIX", "ARYN"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
