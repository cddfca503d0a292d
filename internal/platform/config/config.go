package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the full process configuration. It is built once in main and
// passed into constructors; nothing reads the environment after startup.
type Config struct {
	Addr          string
	LogLevel      string
	LogFormat     string
	JWTSigningKey string

	Redis      RedisConfig
	Postgres   PostgresConfig
	Kafka      KafkaConfig
	Aggregator AggregatorConfig
	Connectors ConnectorConfig
}

// RedisConfig configures the cache tier. An empty URL disables Redis and the
// aggregator falls back to the in-process cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the durable store. An empty URL selects the
// in-memory store.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig configures the audit event publisher. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AggregatorConfig holds the pipeline's freshness and deadline policy.
//
// StalenessWindow must be >= CacheTTL: a cache entry must never outlive the
// store record's freshness window, otherwise a resolve could serve data the
// staleness policy would have refetched.
type AggregatorConfig struct {
	CacheTTL        time.Duration
	StalenessWindow time.Duration
	ResolveDeadline time.Duration
}

// ConnectorConfig holds the scraping client policy shared by all connectors.
type ConnectorConfig struct {
	Timeout           time.Duration
	UserAgent         string
	MaxBodyBytes      int64
	RequestsPerSecond float64
	Burst             int
	RespectRobots     bool
	NitterBaseURL     string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          getenv("KYC_ADDR", ":8080"),
		LogLevel:      getenv("KYC_LOG_LEVEL", "info"),
		LogFormat:     getenv("KYC_LOG_FORMAT", "text"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getenvInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getenvInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_AUDIT_TOPIC", "company.insight.refreshed"),
		},
		Aggregator: AggregatorConfig{
			CacheTTL:        getenvDuration("CACHE_TTL", 6*time.Hour),
			StalenessWindow: getenvDuration("STALENESS_WINDOW", 24*time.Hour),
			ResolveDeadline: getenvDuration("RESOLVE_DEADLINE", 8*time.Second),
		},
		Connectors: ConnectorConfig{
			Timeout:           getenvDuration("CONNECTOR_TIMEOUT", 5*time.Second),
			UserAgent:         getenv("CONNECTOR_USER_AGENT", "KnowYourCompany/1.0"),
			MaxBodyBytes:      int64(getenvInt("CONNECTOR_MAX_BODY_BYTES", 2<<20)),
			RequestsPerSecond: getenvFloat("CONNECTOR_RATE", 2.0),
			Burst:             getenvInt("CONNECTOR_BURST", 4),
			RespectRobots:     getenv("CONNECTOR_RESPECT_ROBOTS", "true") == "true",
			NitterBaseURL:     getenv("CONNECTOR_NITTER_URL", "https://nitter.net"),
		},
	}

	if cfg.Aggregator.StalenessWindow < cfg.Aggregator.CacheTTL {
		return cfg, fmt.Errorf("STALENESS_WINDOW (%s) must be >= CACHE_TTL (%s)",
			cfg.Aggregator.StalenessWindow, cfg.Aggregator.CacheTTL)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
