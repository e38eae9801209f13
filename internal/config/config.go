package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Database configuration
	DatabaseURL string `json:"database_url"`

	// Redis configuration
	RedisURL    string        `json:"redis_url"`
	RedisPrefix string        `json:"redis_prefix"`
	CacheTTL    time.Duration `json:"cache_ttl"`

	// AI Configuration
	AIApiKey    string        `json:"ai_api_key"`
	AIModel     string        `json:"ai_model"`
	AITimeout   time.Duration `json:"ai_timeout"`
	AIMaxTokens int           `json:"ai_max_tokens"`

	// CloudFlare R2 / S3 archive configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"r2_secret_key"`
	R2Bucket    string `json:"r2_bucket"`
	R2Region    string `json:"r2_region"`

	// Logging
	LogLevel string `json:"log_level"`

	// Security
	AdminAPIKey string `json:"admin_api_key"`
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	return &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		// Database configuration
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=inkpress dbname=inkpress sslmode=disable"),

		// Redis configuration
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix: getEnv("REDIS_PREFIX", "inkpress:"),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", 10*time.Minute),

		// AI Configuration
		AIApiKey:    getEnv("AI_API_KEY", ""),
		AIModel:     getEnv("AI_MODEL", "gemini-pro"),
		AITimeout:   getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxTokens: getEnvAsInt("AI_MAX_TOKENS", 2000),

		// CloudFlare R2 / S3 archive configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "articles"),
		R2Region:    getEnv("R2_REGION", "auto"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
