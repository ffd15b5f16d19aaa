package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PaymentChannel     string

	// Event feed configuration
	FeedPageSize int

	// Purchase configuration
	MaxQuantityPerUser int

	// Voting configuration
	VoteStatsCacheTTL time.Duration

	// USSD gateway configuration
	USSDWebhookSecret  string
	USSDGatewayKeyHash string
	USSDDedupTTL       time.Duration

	// Rate limiting
	VoteRateLimit      int
	VoteRateWindow     time.Duration
	PurchaseRateLimit  int
	PurchaseRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	// Optional .env file for local development.
	_ = godotenv.Load()

	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PaymentChannel:     getEnv("PAYMENT_CHANNEL", "bank-payment-notifications"),

		// Feed
		FeedPageSize: getEnvAsInt("FEED_PAGE_SIZE", 10),

		// Purchases
		MaxQuantityPerUser: getEnvAsInt("MAX_QUANTITY_PER_USER", 10),

		// Voting
		VoteStatsCacheTTL: getEnvAsDuration("VOTE_STATS_CACHE_TTL", "10s"),

		// USSD
		USSDWebhookSecret:  getEnv("USSD_WEBHOOK_SECRET", ""),
		USSDGatewayKeyHash: getEnv("USSD_GATEWAY_KEY_HASH", ""),
		USSDDedupTTL:       getEnvAsDuration("USSD_DEDUP_TTL", "24h"),

		// Rate limiting
		VoteRateLimit:      getEnvAsInt("VOTE_RATE_LIMIT", 30),
		VoteRateWindow:     getEnvAsDuration("VOTE_RATE_WINDOW", "1m"),
		PurchaseRateLimit:  getEnvAsInt("PURCHASE_RATE_LIMIT", 10),
		PurchaseRateWindow: getEnvAsDuration("PURCHASE_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
