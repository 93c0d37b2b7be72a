package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	RedisURL     string
	ServerPort   string
	Environment  string
	AuditLogPath string

	// Session established as a login side effect
	SessionTTL time.Duration

	// Login throttling
	LoginRateLimitMaxRequests int
	LoginRateLimitWindow      time.Duration
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	auditPath := os.Getenv("AUDIT_LOG_PATH")
	if auditPath == "" {
		auditPath = "data/audit.log"
	}

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		ServerPort:   os.Getenv("SERVER_PORT"),
		Environment:  os.Getenv("ENVIRONMENT"),
		AuditLogPath: auditPath,

		SessionTTL: getEnvAsDuration("SESSION_TTL", "24h"),

		LoginRateLimitMaxRequests: getEnvAsInt("LOGIN_RATE_LIMIT_MAX_REQUESTS", 20),
		LoginRateLimitWindow:      getEnvAsDuration("LOGIN_RATE_LIMIT_WINDOW", "1m"),
	}

	return cfg
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}
