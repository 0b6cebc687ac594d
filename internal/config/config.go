package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration values for the application.
// Values are loaded from a .env file (if present) and the process environment.
type Config struct {
	// ServerPort is the port the HTTP server listens on
	ServerPort string

	// StoreDriver selects the Local Store backend: memory, pebble, redis or postgres
	StoreDriver string

	// PebblePath is the data directory for the pebble backend
	PebblePath string

	// RedisAddr is the address of the redis backend
	RedisAddr string

	// DatabaseDSN is the Postgres connection string for the postgres backend
	DatabaseDSN string

	// JWTSecret signs session tokens
	JWTSecret string

	// TokenTTL is how long a session token stays valid
	TokenTTL time.Duration

	LogLevel  string
	LogFormat string

	// CorsOrigins lists the origins allowed to call the API
	CorsOrigins []string

	// LoginRateLimit is the sustained login attempts per second per client
	LoginRateLimit float64
	LoginRateBurst int

	// TrustProxy makes client IPs come from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that overwrites those headers.
	TrustProxy bool

	// CaptchaTTL is how long an unused login-form challenge session is kept
	CaptchaTTL time.Duration

	// PaymentDelay is the artificial processing delay of the mock payment
	PaymentDelay time.Duration
}

// Load reads environment variables and returns a populated Config struct.
// Falls back to development defaults if values are not set.
func Load() *Config {
	// Not an error if it doesn't exist; production uses real environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		ServerPort:     getEnv("PORT", "8080"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		PebblePath:     getEnv("PEBBLE_PATH", "./data/localstore"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseDSN:    getEnv("DB_DSN", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       getDuration("TOKEN_TTL", 24*time.Hour),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		CorsOrigins:    getList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		LoginRateLimit: getFloat("LOGIN_RATE_LIMIT", 1),
		LoginRateBurst: getInt("LOGIN_RATE_BURST", 5),
		TrustProxy:     getBool("TRUST_PROXY", false),
		CaptchaTTL:     getDuration("CAPTCHA_TTL", 10*time.Minute),
		PaymentDelay:   getDuration("PAYMENT_DELAY", 2*time.Second),
	}

	if cfg.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set, using an insecure development secret")
		cfg.JWTSecret = "dev-workshopflow-secret"
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseDSN == "" {
		log.Println("WARNING: STORE_DRIVER=postgres but DB_DSN is not set")
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// getList splits a comma-separated variable and trims whitespace
func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
