package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig aggregates runtime configuration, injected via environment
// variables with sensible defaults.
type AppConfig struct {
	Env      string
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Kafka cluster addresses (comma separated), topic and consumer group for
	// the sale-event reporting pipeline.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox: the API appends committed sales, the relay forwards
	// them to Kafka asynchronously.
	SaleEventStream   string
	SaleEventGroup    string
	SaleEventConsumer string

	// Sell endpoint rate limit and dashboard stock cache policy.
	SellRateLimit  int
	SellRateWindow time.Duration
	StockCacheTTL  time.Duration

	// Bounded retry count for optimistic write conflicts on the sell path.
	SellMaxAttempts int

	// Simple admin token guarding stock/price administration endpoints.
	AdminToken string
}

// Load reads and validates configuration, applying defaults where unset.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "trayledger.db"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           0,
		KafkaBrokers:      splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "trayledger-sales"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "trayledger-report-consumer"),
		SaleEventStream:   getEnv("SALE_EVENT_STREAM", "trayledger:sale_events"),
		SaleEventGroup:    getEnv("SALE_EVENT_GROUP", "trayledger-relay-group"),
		SaleEventConsumer: getEnv("SALE_EVENT_CONSUMER", "trayledger-relay-1"),
		SellRateLimit:     60,
		SellRateWindow:    time.Minute,
		StockCacheTTL:     24 * time.Hour,
		SellMaxAttempts:   5,
		AdminToken:        getEnv("ADMIN_TOKEN", "dev-admin-token"),
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("SELL_RATE_LIMIT", cfg.SellRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SELL_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("SELL_RATE_LIMIT must be > 0")
	}
	cfg.SellRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("SELL_RATE_WINDOW_SEC", int(cfg.SellRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SELL_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("SELL_RATE_WINDOW_SEC must be > 0")
	}
	cfg.SellRateWindow = time.Duration(rateWindowSec) * time.Second

	stockTTLHour, err := getEnvInt("STOCK_CACHE_TTL_HOUR", int(cfg.StockCacheTTL.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid STOCK_CACHE_TTL_HOUR: %w", err)
	}
	if stockTTLHour <= 0 {
		return AppConfig{}, fmt.Errorf("STOCK_CACHE_TTL_HOUR must be > 0")
	}
	cfg.StockCacheTTL = time.Duration(stockTTLHour) * time.Hour

	maxAttempts, err := getEnvInt("SELL_MAX_ATTEMPTS", cfg.SellMaxAttempts)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SELL_MAX_ATTEMPTS: %w", err)
	}
	if maxAttempts <= 0 {
		return AppConfig{}, fmt.Errorf("SELL_MAX_ATTEMPTS must be > 0")
	}
	cfg.SellMaxAttempts = maxAttempts

	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.SaleEventStream == "" {
		return AppConfig{}, fmt.Errorf("SALE_EVENT_STREAM must not be empty")
	}
	if cfg.SaleEventGroup == "" {
		return AppConfig{}, fmt.Errorf("SALE_EVENT_GROUP must not be empty")
	}
	if cfg.SaleEventConsumer == "" {
		return AppConfig{}, fmt.Errorf("SALE_EVENT_CONSUMER must not be empty")
	}

	return cfg, nil
}

// getEnv reads a string environment variable, returning fallback when empty.
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt reads an integer environment variable, returning fallback when empty.
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV parses a comma-separated string into a slice.
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
