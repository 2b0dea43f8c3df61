// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the operator auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetOperatorEmail() string
	GetOperatorPasswordHash() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetPublicRateLimitPerMinute() int
	GetPublicRateLimitBurst() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	GetMinioBucketLeads() string
	IsMinIOEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailProvider() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetBrevoAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetAdminEmail() string
}

// ConversionConfig provides settings for the Meta pixel and Conversions API.
type ConversionConfig interface {
	GetMetaPixelID() string
	GetMetaAccessToken() string
	GetMetaGraphBaseURL() string
	GetMetaGraphAPIVersion() string
	GetMetaTestEventCode() string
	GetConversionCountryCode() string
	GetConversionCurrency() string
	GetConversionValue() float64
	IsConversionEnabled() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDeliveryMaxAttempts() int
}

// IntakeConfig provides settings for the public application intake.
type IntakeConfig interface {
	GetIntakeMinAge() int
	GetIntakeMaxAge() int
	GetDeleteOrphanedMedia() bool
	GetMediaJPEGQuality() int
	GetMediaMaxDimension() int
}

// BulkResendConfig provides settings for operator bulk resends.
type BulkResendConfig interface {
	GetBulkResendDelay() time.Duration
}

// LogConfig provides optional rotating file output for the logger.
type LogConfig interface {
	GetLogFile() string
	GetLogFileMaxSizeMB() int
	GetLogFileMaxBackups() int
	GetLogFileMaxAgeDays() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	JWTAccessSecret          string
	AccessTokenTTL           time.Duration
	OperatorEmail            string
	OperatorPasswordHash     string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	PublicRateLimitPerMinute int
	PublicRateLimitBurst     int
	EmailEnabled             bool
	EmailProvider            string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUsername             string
	SMTPPassword             string
	BrevoAPIKey              string
	EmailFromName            string
	EmailFromAddress         string
	AdminEmail               string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIOMaxFileSize         int64
	MinIOPublicBaseURL       string
	MinioBucketLeads         string
	MetaPixelID              string
	MetaAccessToken          string
	MetaGraphBaseURL         string
	MetaGraphAPIVersion      string
	MetaTestEventCode        string
	ConversionCountryCode    string
	ConversionCurrency       string
	ConversionValue          float64
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	DeliveryMaxAttempts      int
	IntakeMinAge             int
	IntakeMaxAge             int
	DeleteOrphanedMedia      bool
	MediaJPEGQuality         int
	MediaMaxDimension        int
	BulkResendDelay          time.Duration
	LogFile                  string
	LogFileMaxSizeMB         int
	LogFileMaxBackups        int
	LogFileMaxAgeDays        int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }
func (c *Config) GetOperatorEmail() string         { return c.OperatorEmail }
func (c *Config) GetOperatorPasswordHash() string  { return c.OperatorPasswordHash }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string              { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool            { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string         { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool          { return c.CORSAllowCreds }
func (c *Config) GetPublicRateLimitPerMinute() int { return c.PublicRateLimitPerMinute }
func (c *Config) GetPublicRateLimitBurst() int     { return c.PublicRateLimitBurst }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetAdminEmail() string       { return c.AdminEmail }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinIOPublicBaseURL() string { return c.MinIOPublicBaseURL }
func (c *Config) GetMinioBucketLeads() string   { return c.MinioBucketLeads }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// ConversionConfig implementation
func (c *Config) GetMetaPixelID() string           { return c.MetaPixelID }
func (c *Config) GetMetaAccessToken() string       { return c.MetaAccessToken }
func (c *Config) GetMetaGraphBaseURL() string      { return c.MetaGraphBaseURL }
func (c *Config) GetMetaGraphAPIVersion() string   { return c.MetaGraphAPIVersion }
func (c *Config) GetMetaTestEventCode() string     { return c.MetaTestEventCode }
func (c *Config) GetConversionCountryCode() string { return c.ConversionCountryCode }
func (c *Config) GetConversionCurrency() string    { return c.ConversionCurrency }
func (c *Config) GetConversionValue() float64      { return c.ConversionValue }
func (c *Config) IsConversionEnabled() bool {
	return c.MetaPixelID != "" && c.MetaAccessToken != ""
}

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string         { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool   { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string   { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int    { return c.AsynqConcurrency }
func (c *Config) GetDeliveryMaxAttempts() int { return c.DeliveryMaxAttempts }

// IntakeConfig implementation
func (c *Config) GetIntakeMinAge() int         { return c.IntakeMinAge }
func (c *Config) GetIntakeMaxAge() int         { return c.IntakeMaxAge }
func (c *Config) GetDeleteOrphanedMedia() bool { return c.DeleteOrphanedMedia }
func (c *Config) GetMediaJPEGQuality() int     { return c.MediaJPEGQuality }
func (c *Config) GetMediaMaxDimension() int    { return c.MediaMaxDimension }

// BulkResendConfig implementation
func (c *Config) GetBulkResendDelay() time.Duration { return c.BulkResendDelay }

// LogConfig implementation
func (c *Config) GetLogFile() string        { return c.LogFile }
func (c *Config) GetLogFileMaxSizeMB() int  { return c.LogFileMaxSizeMB }
func (c *Config) GetLogFileMaxBackups() int { return c.LogFileMaxBackups }
func (c *Config) GetLogFileMaxAgeDays() int { return c.LogFileMaxAgeDays }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailProvider := strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "smtp")))
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:           durationOr(getEnv("JWT_ACCESS_TTL", "12h"), 12*time.Hour),
		OperatorEmail:            strings.ToLower(strings.TrimSpace(getEnv("OPERATOR_EMAIL", ""))),
		OperatorPasswordHash:     getEnv("OPERATOR_PASSWORD_HASH", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		PublicRateLimitPerMinute: intOr(getEnv("PUBLIC_RATE_LIMIT_PER_MINUTE", "30"), 30),
		PublicRateLimitBurst:     intOr(getEnv("PUBLIC_RATE_LIMIT_BURST", "10"), 10),
		EmailEnabled:             emailEnabled,
		EmailProvider:            emailProvider,
		SMTPHost:                 getEnv("SMTP_HOST", "mail.smtp2go.com"),
		SMTPPort:                 intOr(getEnv("SMTP_PORT", "2525"), 2525),
		SMTPUsername:             getEnv("SMTP_USERNAME", ""),
		SMTPPassword:             getEnv("SMTP_PASSWORD", ""),
		BrevoAPIKey:              getEnv("BREVO_API_KEY", ""),
		EmailFromName:            getEnv("EMAIL_FROM_NAME", "TinyTalent Applications"),
		EmailFromAddress:         getEnv("EMAIL_FROM_ADDRESS", "no-reply@tinytalent.uk"),
		AdminEmail:               getEnv("ADMIN_EMAIL", "admin@tinytalent.uk"),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:         int64Or(getEnv("MINIO_MAX_FILE_SIZE", "20971520"), 20<<20),
		MinIOPublicBaseURL:       getEnv("MINIO_PUBLIC_BASE_URL", ""),
		MinioBucketLeads:         getEnv("MINIO_BUCKET_LEADS", "leads"),
		MetaPixelID:              getEnv("META_PIXEL_ID", ""),
		MetaAccessToken:          getEnv("META_ACCESS_TOKEN", ""),
		MetaGraphBaseURL:         getEnv("META_GRAPH_BASE_URL", "https://graph.facebook.com"),
		MetaGraphAPIVersion:      getEnv("META_GRAPH_API_VERSION", "v18.0"),
		MetaTestEventCode:        getEnv("META_TEST_EVENT_CODE", ""),
		ConversionCountryCode:    getEnv("CONVERSION_COUNTRY_CODE", "uk"),
		ConversionCurrency:       getEnv("CONVERSION_CURRENCY", "GBP"),
		ConversionValue:          floatOr(getEnv("CONVERSION_VALUE", "0"), 0),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "notifications"),
		AsynqConcurrency:         intOr(getEnv("ASYNQ_CONCURRENCY", "10"), 10),
		DeliveryMaxAttempts:      intOr(getEnv("DELIVERY_MAX_ATTEMPTS", "4"), 4),
		IntakeMinAge:             intOr(getEnv("INTAKE_MIN_AGE", "3"), 3),
		IntakeMaxAge:             intOr(getEnv("INTAKE_MAX_AGE", "17"), 17),
		DeleteOrphanedMedia:      strings.EqualFold(getEnv("INTAKE_DELETE_ORPHANED_MEDIA", "false"), "true"),
		MediaJPEGQuality:         intOr(getEnv("MEDIA_JPEG_QUALITY", "80"), 80),
		MediaMaxDimension:        intOr(getEnv("MEDIA_MAX_DIMENSION", "4096"), 4096),
		BulkResendDelay:          durationOr(getEnv("BULK_RESEND_DELAY", "5s"), 5*time.Second),
		LogFile:                  getEnv("LOG_FILE", ""),
		LogFileMaxSizeMB:         intOr(getEnv("LOG_FILE_MAX_SIZE_MB", "100"), 100),
		LogFileMaxBackups:        intOr(getEnv("LOG_FILE_MAX_BACKUPS", "5"), 5),
		LogFileMaxAgeDays:        intOr(getEnv("LOG_FILE_MAX_AGE_DAYS", "28"), 28),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch c.EmailProvider {
	case "smtp", "brevo":
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be smtp or brevo, got %q", c.EmailProvider)
	}
	if c.EmailEnabled && c.EmailProvider == "brevo" && c.BrevoAPIKey == "" {
		return fmt.Errorf("BREVO_API_KEY is required when EMAIL_PROVIDER is brevo")
	}
	if c.EmailEnabled && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if c.IntakeMinAge > c.IntakeMaxAge {
		return fmt.Errorf("INTAKE_MIN_AGE (%d) cannot exceed INTAKE_MAX_AGE (%d)", c.IntakeMinAge, c.IntakeMaxAge)
	}
	if c.MediaJPEGQuality < 1 || c.MediaJPEGQuality > 100 {
		return fmt.Errorf("MEDIA_JPEG_QUALITY must be between 1 and 100")
	}
	if c.DeliveryMaxAttempts < 1 {
		c.DeliveryMaxAttempts = 1
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func intOr(value string, fallback int) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return result
}

func int64Or(value string, fallback int64) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return result
}

func floatOr(value string, fallback float64) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
