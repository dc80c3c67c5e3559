package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Vector    VectorConfig
	Storage   StorageConfig
	Ingest    IngestConfig
	Chat      ChatConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	GeminiKey        string
	OllamaURL        string
	DefaultProvider  string
	FallbackProvider string
	// FallbackModel is sent to the fallback provider. Empty selects that
	// provider's default chat model.
	FallbackModel string
}

type EmbeddingConfig struct {
	Provider string
	Model    string
	CacheTTL time.Duration
}

type VectorConfig struct {
	Backend          string // "pgvector", "qdrant" or "memory"
	Dimension        int
	QdrantAddr       string
	QdrantAPIKey     string
	QdrantCollection string
}

type StorageConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	URLExpiry     time.Duration
	MaxUploadSize int64
}

type IngestConfig struct {
	Mode        string // "queue" or "inline"
	Timeout     time.Duration
	Concurrency int
}

type ChatConfig struct {
	Provider     string
	Model        string
	Temperature  float64
	MaxTokens    int
	TopK         int
	HistoryLimit int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	floatVar := func(key string, fallback float64) float64 {
		v, err := getEnvFloat(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           intVar("SERVER_PORT", 8080),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   floatVar("RATE_LIMIT_RPS", 20),
			RateLimitBurst: intVar("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: intVar("DB_MAX_CONNS", 20),
			MinConns: intVar("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			GeminiKey:        getEnv("GEMINI_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "gemini"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			FallbackModel:    getEnv("LLM_FALLBACK_MODEL", ""),
		},
		Embedding: EmbeddingConfig{
			Provider: getEnv("EMBEDDING_PROVIDER", ""),
			Model:    getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
			CacheTTL: durationVar("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		Vector: VectorConfig{
			Backend:          getEnv("VECTOR_BACKEND", "pgvector"),
			Dimension:        intVar("VECTOR_DIMENSION", 768),
			QdrantAddr:       getEnv("QDRANT_ADDR", "localhost:6334"),
			QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
			QdrantCollection: getEnv("QDRANT_COLLECTION", "pdf_chunks"),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			Region:        getEnv("S3_REGION", "us-east-1"),
			AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("S3_SECRET_KEY", ""),
			Bucket:        getEnv("S3_BUCKET", "pdfs"),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
			URLExpiry:     durationVar("S3_URL_EXPIRY", 24*time.Hour),
			MaxUploadSize: int64(intVar("MAX_UPLOAD_BYTES", 32<<20)),
		},
		Ingest: IngestConfig{
			Mode:        getEnv("INGEST_MODE", "queue"),
			Timeout:     durationVar("INGEST_TIMEOUT", 10*time.Minute),
			Concurrency: intVar("INGEST_CONCURRENCY", 5),
		},
		Chat: ChatConfig{
			Provider:     getEnv("CHAT_PROVIDER", ""),
			Model:        getEnv("CHAT_MODEL", "gemini-2.5-flash"),
			Temperature:  floatVar("CHAT_TEMPERATURE", 0.2),
			MaxTokens:    intVar("CHAT_MAX_TOKENS", 0),
			TopK:         intVar("CHAT_TOP_K", 5),
			HistoryLimit: intVar("CHAT_HISTORY_LIMIT", 6),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks settings every binary needs. DATABASE_URL is optional for
// the API, which falls back to in-memory storage without it.
func (c *Config) Validate() error {
	var missing []string
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.Vector.Dimension)
	}
	switch c.Ingest.Mode {
	case "queue", "inline":
	default:
		return fmt.Errorf("INGEST_MODE must be queue or inline, got %q", c.Ingest.Mode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
