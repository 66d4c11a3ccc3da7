package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/textmatch/internal/configs/env"
)

// Config holds all configuration for the application
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisDB                 int
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration
	JobResultTTL            time.Duration

	// Remote extraction service (optional)
	ExtractorBaseURL string
	ExtractorAPIKey  string
	ExtractorTimeout time.Duration

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentCompute int
	WorkerPoolSize       int // 0 sizes the pool from the CPU count

	// Computation
	ComputationTimeout     time.Duration
	DefaultMinMatchLength  int
	MaxDocumentRunes       int
	MaxUploadBytes         int64
	IncludeSegmentsDefault bool

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "textmatch")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = env.GetEnvInt("REDIS_DB", 0)
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "textmatch:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "textmatch:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "textmatch:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_HOURS", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour
	resultTTLMinutes := env.GetEnvInt("JOB_RESULT_TTL_MINUTES", 60)
	cfg.JobResultTTL = time.Duration(resultTTLMinutes) * time.Minute

	// Remote extraction service
	cfg.ExtractorBaseURL = env.GetEnv("EXTRACTOR_BASE_URL", "")
	cfg.ExtractorAPIKey = env.GetEnv("EXTRACTOR_API_KEY", "")
	extractorTimeout := env.GetEnvInt("EXTRACTOR_TIMEOUT_SECONDS", 30)
	cfg.ExtractorTimeout = time.Duration(extractorTimeout) * time.Second

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "textmatch")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentCompute = env.GetEnvInt("MAX_CONCURRENT_COMPUTE", 5)
	cfg.WorkerPoolSize = env.GetEnvInt("WORKER_POOL_SIZE", 0)

	// Computation
	timeoutSeconds := env.GetEnvInt("COMPUTATION_TIMEOUT_SECONDS", 60)
	cfg.ComputationTimeout = time.Duration(timeoutSeconds) * time.Second
	cfg.DefaultMinMatchLength = env.GetEnvInt("DEFAULT_MIN_MATCH_LENGTH", 20)
	// analysis time grows with the square of this; 50k runes runs in seconds
	cfg.MaxDocumentRunes = env.GetEnvInt("MAX_DOCUMENT_RUNES", 50_000)
	cfg.MaxUploadBytes = env.GetEnvInt64("MAX_UPLOAD_BYTES", 10<<20)
	cfg.IncludeSegmentsDefault = env.GetEnvBool("INCLUDE_SEGMENTS", false)

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogFormat = env.GetEnv("LOG_FORMAT", "json")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	if c.MaxConcurrentCompute <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPUTE must be greater than 0")
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must not be negative")
	}
	if c.ComputationTimeout <= 0 {
		return fmt.Errorf("COMPUTATION_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.DefaultMinMatchLength <= 0 {
		return fmt.Errorf("DEFAULT_MIN_MATCH_LENGTH must be greater than 0")
	}
	if c.MaxDocumentRunes <= 0 {
		return fmt.Errorf("MAX_DOCUMENT_RUNES must be greater than 0")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be greater than 0")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_HOURS must be greater than 0")
	}
	if c.JobResultTTL <= 0 {
		return fmt.Errorf("JOB_RESULT_TTL_MINUTES must be greater than 0")
	}
	return nil
}
