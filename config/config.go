package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with
// development-friendly defaults where a default is safe to have.
type Config struct {
	ServerAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	// MinioPublicURL is the externally reachable base URL for stored objects,
	// e.g. "https://cdn.example.com". Empty means objects are served through
	// this process at /static/.
	MinioPublicURL string

	JWTSecret string
	// AuthDevMode selects the unverified-token fallback verifier and enables
	// the dev-only auth routes. Must never be set in production.
	AuthDevMode bool

	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPassword   string
	AdminTestEmail string

	FrontendURL string

	// MaxTrackSize is the per-file upload ceiling in bytes.
	MaxTrackSize int64
	// RateLimitWindowSec / RateLimitMax mirror the classic
	// 100-requests-per-15-minutes gateway limit.
	RateLimitWindowSec int
	RateLimitMax       int

	LogLevel string
	LogFile  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for credentials
		DBName:     getEnv("DB_NAME", "tunedrop"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "tunedrop"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		AuthDevMode: getEnvBool("AUTH_DEV_MODE", false),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:      getEnv("EMAIL_FROM", "noreply@tunedrop.io"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "TuneDrop"),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		AdminTestEmail: getEnv("ADMIN_TEST_EMAIL", ""),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		MaxTrackSize:       int64(getEnvInt("MAX_TRACK_SIZE_MB", 50)) << 20,
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 900),
		RateLimitMax:       getEnvInt("RATE_LIMIT_MAX", 100),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}
