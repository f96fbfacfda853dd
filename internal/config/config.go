package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"squadhub-service/internal/pkg/jwt"
)

// Storage backends for the KV port.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type AppConfig struct {
	// Server
	HTTPAddr    string
	CORSOrigins []string

	// Storage
	StorageBackend string
	PostgresDSN    string
	PostgresConns  int32
	KVTable        string
	RedisAddrs     []string
	RedisPass      string
	RedisDB        int
	RedisCluster   bool
	RedisPrefix    string

	// JWT
	JWT jwt.Config

	// Payments
	PaymentCheckoutURL string
	PaymentBusiness    string
	PaymentReturnURL   string
	PaymentCancelURL   string

	// ServiceKeyHash is the bcrypt hash of the key internal callers present.
	ServiceKeyHash string

	// PlanCatalogPath points at a JSON catalog; empty uses the built-in plans.
	PlanCatalogPath string
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		PostgresConns:  int32(getEnvInt("POSTGRES_MAX_CONNS", 10)),
		KVTable:        getEnv("KV_TABLE", "kv_entries"),
		RedisAddrs:     getEnvSlice("REDIS_ADDR", []string{"localhost:6379"}),
		RedisPass:      getEnv("REDIS_PASS", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisCluster:   strings.ToLower(getEnv("REDIS_CLUSTER", "false")) == "true",
		RedisPrefix:    getEnv("REDIS_PREFIX", "squadhub:"),

		JWT: jwt.Config{
			PrivPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", "/app/secrets/jwt_public.pem"),
			Issuer:   getEnv("JWT_ISSUER", "squadhub-identity"),
			Audience: getEnv("JWT_AUDIENCE", "squadhub-api"),
			TTL:      getEnvDuration("JWT_TTL", 24*time.Hour),
			KID:      getEnv("JWT_KID", "squadhub-key"),
		},

		PaymentCheckoutURL: getEnv("PAYMENT_CHECKOUT_URL", "https://www.sandbox.paypal.com/cgi-bin/webscr"),
		PaymentBusiness:    getEnv("PAYMENT_BUSINESS", ""),
		PaymentReturnURL:   getEnv("PAYMENT_RETURN_URL", "http://localhost:8000/api/v1/billing/return"),
		PaymentCancelURL:   getEnv("PAYMENT_CANCEL_URL", "http://localhost:3000/billing/cancelled"),

		ServiceKeyHash:  getEnv("SERVICE_KEY_HASH", ""),
		PlanCatalogPath: getEnv("PLAN_CATALOG_PATH", ""),
	}
}

// Validate reports settings the selected backend cannot start without.
func (c AppConfig) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	case StorageRedis:
		if len(c.RedisAddrs) == 0 {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.PaymentBusiness == "" {
		return fmt.Errorf("PAYMENT_BUSINESS is required")
	}
	return nil
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
