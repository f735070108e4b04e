// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Cache       CacheConfig
	Sources     SourcesConfig
	Analysis    AnalysisConfig
	Storage     StorageConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// RedisConfig holds redis configuration for the optional snapshot backend
type RedisConfig struct {
	URL string
	Key string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	SnapshotTopic  string
}

// CacheConfig holds freshness horizons for the two cache tiers
type CacheConfig struct {
	TrendTTL    time.Duration
	AnalysisTTL time.Duration
}

// SourcesConfig holds per-adapter upstream configuration
type SourcesConfig struct {
	AdapterTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration

	SearchBaseURL    string
	SearchRegion     string
	SearchCategories []string

	RedditBaseURL    string
	RedditUserAgent  string
	RedditSubreddits []string
	RedditPostLimit  int
	RedditTimeRange  string
}

// AnalysisConfig holds AI analysis engine configuration
type AnalysisConfig struct {
	OpenAIKey   string
	Model       string
	CallTimeout time.Duration
}

// StorageConfig holds durable storage locations
type StorageConfig struct {
	SnapshotBackend string // "file" or "redis"
	SnapshotPath    string
	ManualPath      string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "trendscope"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
			Key: getEnv("REDIS_SNAPSHOT_KEY", "trendscope:snapshot"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			SnapshotTopic:  getEnv("NATS_SNAPSHOT_TOPIC", "trends.snapshot"),
		},
		Cache: CacheConfig{
			TrendTTL:    getEnvAsDuration("CACHE_TREND_TTL", 15*time.Minute),
			AnalysisTTL: getEnvAsDuration("CACHE_ANALYSIS_TTL", 12*time.Hour),
		},
		Sources: SourcesConfig{
			AdapterTimeout: getEnvAsDuration("SOURCE_ADAPTER_TIMEOUT", 10*time.Second),
			MaxRetries:     getEnvAsInt("SOURCE_MAX_RETRIES", 2),
			RetryBaseDelay: getEnvAsDuration("SOURCE_RETRY_BASE_DELAY", 200*time.Millisecond),

			SearchBaseURL:    getEnv("SEARCH_TRENDS_BASE_URL", "https://trends.google.com"),
			SearchRegion:     getEnv("SEARCH_TRENDS_REGION", "US"),
			SearchCategories: getEnvAsSlice("SEARCH_TRENDS_CATEGORIES", []string{"Entertainment", "Shopping", "Pop Culture"}),

			RedditBaseURL:    getEnv("REDDIT_BASE_URL", "https://www.reddit.com"),
			RedditUserAgent:  getEnv("REDDIT_USER_AGENT", "trendscope/1.0"),
			RedditSubreddits: getEnvAsSlice("REDDIT_SUBREDDITS", []string{"popculturechat", "AskTikTok", "femalefashionadvice", "internetisbeautiful"}),
			RedditPostLimit:  getEnvAsInt("REDDIT_POST_LIMIT", 5),
			RedditTimeRange:  getEnv("REDDIT_TIME_RANGE", "day"),
		},
		Analysis: AnalysisConfig{
			OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o"),
			CallTimeout: getEnvAsDuration("OPENAI_CALL_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			SnapshotBackend: getEnv("SNAPSHOT_BACKEND", "file"),
			SnapshotPath:    getEnv("SNAPSHOT_PATH", "data/trend_snapshot.json"),
			ManualPath:      getEnv("MANUAL_TRENDS_PATH", "data/manual_trends.json"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Analysis.OpenAIKey == "" && config.Environment != "development" {
		return fmt.Errorf("OPENAI_API_KEY must be set in non-development environments")
	}

	switch config.Storage.SnapshotBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown snapshot backend %q", config.Storage.SnapshotBackend)
	}

	return nil
}

// Helper functions

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
