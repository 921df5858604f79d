package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16

	// APIBaseURL is the base URL of the remote data store serving catalog,
	// coupon validation and payment order endpoints.
	APIBaseURL string

	// Currency is the single fixed currency all amounts are quoted in.
	Currency string

	// CORSOrigins are the frontend origins allowed to call the API.
	CORSOrigins []string

	Razorpay RazorpayConfig
	PayPal   PayPalConfig
	Cache    CacheConfig
}

// RazorpayConfig holds the public client identifier for the popup-style
// gateway. The secret key lives server-side; this core never sees it.
type RazorpayConfig struct {
	KeyID string
}

// PayPalConfig holds the public client identifier for the embedded-button
// gateway.
type PayPalConfig struct {
	ClientID string
}

// CacheConfig selects the persisted cache tier and its namespace.
// Provider is "file" (default) or "redis".
type CacheConfig struct {
	Provider  string
	Dir       string        // file provider: directory for persisted entries
	Prefix    string        // key namespace shared by all tiers
	RedisAddr string        // redis provider: host:port
	TTL       time.Duration // freshness window for cached entries
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:         getEnv("ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnvInt("PORT", 4000),
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:5000/api"),
		Currency:    getEnv("CURRENCY", "INR"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		Razorpay: RazorpayConfig{
			KeyID: getEnv("RAZORPAY_KEY_ID", "rzp_test_your_key_here"),
		},
		PayPal: PayPalConfig{
			ClientID: getEnv("PAYPAL_CLIENT_ID", "paypal_client_id_here"),
		},
		Cache: CacheConfig{
			Provider:  getEnv("CACHE_PROVIDER", "file"),
			Dir:       getEnv("CACHE_DIR", "./.cache"),
			Prefix:    getEnv("CACHE_PREFIX", "luma_cache_"),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			TTL:       getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	// Production requires real provider identifiers and a reachable backend
	if cfg.Env == "prod" {
		if cfg.APIBaseURL == "" {
			return nil, fmt.Errorf("API_BASE_URL must be set in production environment")
		}
		if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeyID == "rzp_test_your_key_here" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID must be set in production environment")
		}
		if cfg.PayPal.ClientID == "" || cfg.PayPal.ClientID == "paypal_client_id_here" {
			return nil, fmt.Errorf("PAYPAL_CLIENT_ID must be set in production environment")
		}
	}

	if cfg.Cache.Provider == "redis" && cfg.Cache.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR required when using redis cache provider")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Default().Warn("Invalid duration. Using default", slog.String("key", key), slog.String("value", value))
	}
	return defaultValue
}
