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
	DatabaseURL   string
	SiteName      string
	FallbackPhone string

	// CORS
	CORSAllowedOrigins  []string
	CORSPreviewPatterns []string
	CORSDefaultOrigin   string

	// Submit endpoint rate limiting (requests per second / burst per IP)
	SubmitRateLimit float64
	SubmitRateBurst int

	AdminJWTSecret string

	// Google Sheets service account
	GoogleServiceAccountEmail string
	GooglePrivateKey          string
	GoogleTokenURI            string
	GoogleSheetID             string
	GoogleSheetRange          string
	GoogleSheetsEndpoint      string

	// GoHighLevel CRM
	GHLAPIKey     string
	GHLLocationID string
	GHLBaseURL    string
	GHLAPIVersion string
	GHLTimeout    time.Duration

	// Draft storage
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DraftTTL      time.Duration // zero keeps drafts until cleared

	// New-lead notifications
	NotifyEmailTo     string
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	EmailFromName     string
	SESFromEmail      string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SiteName:      getEnv("SITE_NAME", "Renovation Pros"),
		FallbackPhone: getEnv("FALLBACK_PHONE", "(404) 555-0199"),

		CORSAllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		CORSPreviewPatterns: getEnvAsList("CORS_PREVIEW_PATTERNS", nil),
		CORSDefaultOrigin:   getEnv("CORS_DEFAULT_ORIGIN", ""),

		SubmitRateLimit: getEnvAsFloat("SUBMIT_RATE_LIMIT", 1),
		SubmitRateBurst: getEnvAsInt("SUBMIT_RATE_BURST", 5),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		GoogleServiceAccountEmail: getEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		GooglePrivateKey:          getEnv("GOOGLE_PRIVATE_KEY", ""),
		GoogleTokenURI:            getEnv("GOOGLE_TOKEN_URI", "https://oauth2.googleapis.com/token"),
		GoogleSheetID:             getEnv("GOOGLE_SHEET_ID", ""),
		GoogleSheetRange:          getEnv("GOOGLE_SHEET_RANGE", "Leads!A:M"),
		GoogleSheetsEndpoint:      getEnv("GOOGLE_SHEETS_ENDPOINT", ""),

		GHLAPIKey:     getEnv("GHL_API_KEY", ""),
		GHLLocationID: getEnv("GHL_LOCATION_ID", ""),
		GHLBaseURL:    getEnv("GHL_BASE_URL", "https://services.leadconnectorhq.com"),
		GHLAPIVersion: getEnv("GHL_API_VERSION", "2021-07-28"),
		GHLTimeout:    getEnvAsDuration("GHL_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DraftTTL:      getEnvAsDuration("DRAFT_TTL", 0),

		NotifyEmailTo:     getEnv("NOTIFY_EMAIL_TO", ""),
		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Website Leads"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// SheetsConfigured reports whether every Google Sheets credential is present.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleServiceAccountEmail != "" && c.GooglePrivateKey != "" && c.GoogleSheetID != ""
}

// CRMConfigured reports whether the GoHighLevel API key and location are set.
func (c *Config) CRMConfigured() bool {
	return c.GHLAPIKey != "" && c.GHLLocationID != ""
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
