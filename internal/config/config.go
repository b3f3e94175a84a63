package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL and JWT_SECRET are required.
type Config struct {
	// Server
	HTTPPort        string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Billing webhook
	BillingWebhookSecret string

	// Email: Postmark tokens; empty tokens select the log-only dev sender.
	PostmarkServerToken  string
	PostmarkAccountToken string
	EmailFrom            string

	// Storage: "local" or "s3"
	StorageDriver  string
	StorageDir     string
	S3Bucket       string
	S3Region       string
	S3AccessKeyID  string
	S3SecretKey    string
	S3Endpoint     string
	S3UsePathStyle bool

	// Batch processor
	ProcessorIdleInterval time.Duration
	PerBatchConcurrency   int

	// Reminder scheduler
	ReminderInterval       time.Duration
	ReminderCooldown       time.Duration
	ReminderSendsPerSecond float64
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		JWTSecret: jwtSecret,
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		BillingWebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),

		PostmarkServerToken:  getEnv("POSTMARK_SERVER_TOKEN", ""),
		PostmarkAccountToken: getEnv("POSTMARK_ACCOUNT_TOKEN", ""),
		EmailFrom:            getEnv("EMAIL_FROM", "no-reply@sealdesk.local"),

		StorageDriver:  getEnv("STORAGE_DRIVER", "local"),
		StorageDir:     getEnv("STORAGE_DIR", "./data/blobs"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:  getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3UsePathStyle: getEnv("S3_USE_PATH_STYLE", "") == "true",

		ProcessorIdleInterval: getDuration("PROCESSOR_IDLE_INTERVAL", 2*time.Second),
		PerBatchConcurrency:   getInt("PER_BATCH_CONCURRENCY", 5),

		ReminderInterval:       getDuration("REMINDER_INTERVAL", time.Minute),
		ReminderCooldown:       getDuration("REMINDER_COOLDOWN", 12*time.Hour),
		ReminderSendsPerSecond: getFloat("REMINDER_SENDS_PER_SECOND", 2),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
