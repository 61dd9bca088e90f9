package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the process configuration, loaded once from the environment.
type Config struct {
	Env  string
	Port string

	DB         DBConfig
	Embedding  EmbeddingConfig
	LLM        LLMConfig
	Classifier ClassifierConfig
	Retrieval  RetrievalConfig
	Telemetry  TelemetryConfig
	Worker     WorkerConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int
}

// DSN renders the pgx connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type EmbeddingConfig struct {
	BaseURL        string
	DenseModel     string
	DenseDim       int
	SparseDim      int
	TimeoutSeconds int
	CacheSize      int
}

type LLMConfig struct {
	BaseURL        string
	Model          string
	APIKey         string
	TimeoutSeconds int
}

type ClassifierConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

type RetrievalConfig struct {
	TopK                    int
	PerQueryTopK            int
	HybridAlpha             float64
	TopicThreshold          float64
	FusionWeight            float64
	JudgeRPS                float64
	JudgeWorkers            int
	JudgeDefaultScore       float64
	JudgeLowConfidenceFloor float64
	ChunkTable              string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

type WorkerConfig struct {
	Enabled           bool
	PollSeconds       int
	MaxBackoffSeconds int
}

// Load reads configuration from the environment with production defaults.
func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "legislai-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "legislai"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "legislai"),
			Name:     getEnv("DB_NAME", "legislai"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Embedding: EmbeddingConfig{
			BaseURL:        getEnv("EMBEDDING_URL", "http://embedder:8080"),
			DenseModel:     getEnv("EMBEDDING_MODEL", "multilingual-e5-large"),
			DenseDim:       getEnvInt("EMBEDDING_DIM", 1024),
			SparseDim:      getEnvInt("EMBEDDING_SPARSE_DIM", 250002),
			TimeoutSeconds: getEnvInt("EMBEDDING_TIMEOUT_SECONDS", 30),
			CacheSize:      getEnvInt("EMBEDDING_CACHE_SIZE", 512),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("LLM_URL", "http://llm-gateway:8000"),
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:         getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
			TimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 60),
		},
		Classifier: ClassifierConfig{
			BaseURL:        getEnv("CLASSIFIER_URL", ""),
			TimeoutSeconds: getEnvInt("CLASSIFIER_TIMEOUT_SECONDS", 10),
		},
		Retrieval: RetrievalConfig{
			TopK:                    getEnvInt("RETRIEVAL_TOP_K", 10),
			PerQueryTopK:            getEnvInt("RETRIEVAL_PER_QUERY_TOP_K", 20),
			HybridAlpha:             getEnvFloat("RETRIEVAL_HYBRID_ALPHA", 0.3),
			TopicThreshold:          getEnvFloat("RETRIEVAL_TOPIC_THRESHOLD", 0.8),
			FusionWeight:            getEnvFloat("RETRIEVAL_FUSION_WEIGHT", 0.3),
			JudgeRPS:                getEnvFloat("RETRIEVAL_JUDGE_RPS", 10),
			JudgeWorkers:            getEnvInt("RETRIEVAL_JUDGE_WORKERS", 8),
			JudgeDefaultScore:       getEnvFloat("RETRIEVAL_JUDGE_DEFAULT_SCORE", 80),
			JudgeLowConfidenceFloor: getEnvFloat("RETRIEVAL_JUDGE_LOW_CONFIDENCE_FLOOR", 70),
			ChunkTable:              getEnv("RETRIEVAL_CHUNK_TABLE", "legal_chunks"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
		},
		Worker: WorkerConfig{
			Enabled:           getEnvBool("INGEST_WORKER_ENABLED", true),
			PollSeconds:       getEnvInt("INGEST_POLL_SECONDS", 5),
			MaxBackoffSeconds: getEnvInt("INGEST_MAX_BACKOFF_SECONDS", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getSecret reads envKey directly, then falls back to the file named by
// fileEnvKey. Docker secrets arrive via the *_FILE variant.
func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
