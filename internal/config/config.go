package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort      string
	AppEnv       string
	LogLevel     string
	StoreBackend string // "dynamo" | "memory"

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName    string
	S3PublicBaseURL string

	JWTSecret string
	JWTExpiry time.Duration

	ClientURL         string
	AdminEmail        string
	AdminPasswordHash string // bcrypt hash, never the plaintext

	ResetTokenTTL        time.Duration
	VerificationTokenTTL time.Duration
	VerificationCodeTTL  time.Duration

	PasswordChangeMinLength int
	PasswordResetMinLength  int

	Notifier     string // "smtp" | "sns"
	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string
	SNSTopicARN  string

	AllowedOrigins []string // CORS allowed origins
	RateLimitRPS   float64
	RateLimitBurst int
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string
	Products string
	Orders   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:      getEnv("APP_PORT", "4000"),
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", "dynamo"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:    getEnv("DYNAMO_TABLE_USERS", "users"),
			Products: getEnv("DYNAMO_TABLE_PRODUCTS", "products"),
			Orders:   getEnv("DYNAMO_TABLE_ORDERS", "orders"),
		},

		S3BucketName:    getEnv("S3_BUCKET_NAME", "storefront-images"),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 168)) * time.Hour,

		ClientURL:         strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		ResetTokenTTL:        time.Duration(getEnvInt("RESET_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		VerificationTokenTTL: time.Duration(getEnvInt("VERIFICATION_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		VerificationCodeTTL:  time.Duration(getEnvInt("VERIFICATION_CODE_TTL_MINUTES", 10)) * time.Minute,

		PasswordChangeMinLength: getEnvInt("PASSWORD_CHANGE_MIN_LENGTH", 8),
		PasswordResetMinLength:  getEnvInt("PASSWORD_RESET_MIN_LENGTH", 8),

		Notifier:     getEnv("NOTIFIER", "smtp"),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN:  getEnv("SNS_TOPIC_ARN", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
