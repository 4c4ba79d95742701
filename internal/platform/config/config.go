package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; a .env file is honored when present.
type Server struct {
	Addr        string
	MetricsAddr string
	DatabaseURL string
	RedisAddr   string

	// KafkaBrokers enables workflow lifecycle events when non-empty.
	KafkaBrokers []string

	// JWTSigningKey is the process-wide symmetric secret shared by every
	// worker. Read once at startup, never regenerated per request.
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// RefCatalogCacheTTL bounds staleness of cached reference-catalog lookups.
var RefCatalogCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Server{
		Addr:           envOr("PASSBUY_ADDR", ":8080"),
		MetricsAddr:    envOr("METRICS_ADDR", ":9090"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("JWT_ISSUER", "PassBuy"),
		JWTAudience:    envOr("JWT_AUDIENCE", "PassBuyClients"),
		AccessTokenTTL: time.Hour,
	}

	if raw := os.Getenv("ACCESS_TOKEN_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
			cfg.AccessTokenTTL = ttl
		}
	}
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
