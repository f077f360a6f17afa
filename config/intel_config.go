package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique worker ID using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "intel"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Storage
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// Neo4j (tone profiles)
	Neo4jURL      string
	Neo4jUsername string
	Neo4jPassword string

	// JWT
	JWTSecret string

	// OpenAI
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	LLMModel          string
	LLMEmbeddingModel string
	LLMMaxTokens      int
	LLMTemperature    float64
	LLMTimeoutSec     int

	// Classification
	ClassifySimilarLimit       int
	ClassifyMinSimilarity      float64
	ClassifyConsensusThreshold float64
	ClassifyDigestSize         int
	ClassifyDigestMaxWords     int
	EmbeddingCacheTTLMin       int

	// Learning
	LearningWorkers   int
	LearningQueueSize int
	LearningBudget    time.Duration
	LearningDispatch  string
	ToneUpdateEvery   int
	OwnerLockTTL      time.Duration

	// Worker (Redis Stream)
	WorkerID           string
	StreamGroup        string
	ConsumerBatchSize  int
	ConsumerBlockMS    int
	ConsumerMaxRetries int

	// CORS
	AllowedOrigins []string

	// Per-owner API requests per minute, 0 disables. Needs Redis.
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Storage
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "email_intelligence"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Neo4j
		Neo4jURL:      getEnv("NEO4J_URL", ""),
		Neo4jUsername: getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OpenAI
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMEmbeddingModel: getEnv("LLM_EMBEDDING_MODEL", "text-embedding-ada-002"),
		LLMMaxTokens:      getEnvInt("LLM_MAX_TOKENS", 1000),
		LLMTemperature:    getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeoutSec:     getEnvInt("LLM_TIMEOUT_SEC", 30),

		// Classification
		ClassifySimilarLimit:       getEnvInt("CLASSIFY_SIMILAR_LIMIT", 5),
		ClassifyMinSimilarity:      getEnvFloat("CLASSIFY_MIN_SIMILARITY", 0.7),
		ClassifyConsensusThreshold: getEnvFloat("CLASSIFY_CONSENSUS_THRESHOLD", 0.8),
		ClassifyDigestSize:         getEnvInt("CLASSIFY_DIGEST_SIZE", 3),
		ClassifyDigestMaxWords:     getEnvInt("CLASSIFY_DIGEST_MAX_WORDS", 50),
		EmbeddingCacheTTLMin:       getEnvInt("EMBEDDING_CACHE_TTL_MIN", 60),

		// Learning
		LearningWorkers:   getEnvInt("LEARNING_WORKERS", 4),
		LearningQueueSize: getEnvInt("LEARNING_QUEUE_SIZE", 256),
		LearningBudget:    time.Duration(getEnvInt("LEARNING_BUDGET_MS", 5000)) * time.Millisecond,
		LearningDispatch:  getEnv("LEARNING_DISPATCH", "auto"),
		ToneUpdateEvery:   getEnvInt("TONE_UPDATE_EVERY", 5),
		OwnerLockTTL:      time.Duration(getEnvInt("OWNER_LOCK_TTL_SEC", 30)) * time.Second,

		// Worker
		WorkerID:           getEnv("WORKER_ID", generateWorkerID()),
		StreamGroup:        getEnv("STREAM_GROUP", "intel-learning"),
		ConsumerBatchSize:  getEnvInt("CONSUMER_BATCH_SIZE", 20),
		ConsumerBlockMS:    getEnvInt("CONSUMER_BLOCK_MS", 5000),
		ConsumerMaxRetries: getEnvInt("CONSUMER_MAX_RETRIES", 3),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the classification and learning engines cannot run with.
func (c *Config) Validate() error {
	if c.ClassifySimilarLimit <= 0 {
		return fmt.Errorf("CLASSIFY_SIMILAR_LIMIT must be positive, got %d", c.ClassifySimilarLimit)
	}
	if c.ClassifyMinSimilarity < 0 || c.ClassifyMinSimilarity > 1 {
		return fmt.Errorf("CLASSIFY_MIN_SIMILARITY must be in [0,1], got %v", c.ClassifyMinSimilarity)
	}
	if c.LearningWorkers <= 0 {
		return fmt.Errorf("LEARNING_WORKERS must be positive, got %d", c.LearningWorkers)
	}
	if c.LearningBudget <= 0 {
		return fmt.Errorf("LEARNING_BUDGET_MS must be positive")
	}
	switch c.LearningDispatch {
	case "auto", "pool", "stream":
	default:
		return fmt.Errorf("LEARNING_DISPATCH must be auto, pool or stream, got %q", c.LearningDispatch)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// ConsumerBlock is how long one stream read waits for new entries.
func (c *Config) ConsumerBlock() time.Duration {
	return time.Duration(c.ConsumerBlockMS) * time.Millisecond
}

// LLMTimeout returns the per-call provider deadline.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
