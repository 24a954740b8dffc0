package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort        string
	DBPath         string
	LogLevel       slog.Level
	LogFormat      string
	RequestTimeout time.Duration
	AdminToken     string
	UploadDir      string

	CuratedQAPath    string
	StopwordsPath    string
	CoverageDir      string
	TFIDFMaxFeatures int
	TFIDFCacheSize   int

	AskMaxChars      int
	AskMaxPassages   int
	DefaultRetriever string
	PartialMin       float64
	CorrectMin       float64

	// Dense retrieval is enabled when QdrantURL is set.
	QdrantURL          string
	QdrantCollection   string
	QdrantVectorSize   int
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
}

// DenseEnabled reports whether a Qdrant store is configured.
func (c *Config) DenseEnabled() bool {
	return c.QdrantURL != ""
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates numeric fields.
// If a .env file exists in the current directory or one of its parents, it is loaded.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		DBPath:             getEnv("DB_PATH", "./data/studyqa.db"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
		UploadDir:          getEnv("UPLOAD_DIR", ""),
		CuratedQAPath:      getEnv("CURATED_QA_PATH", "./data/curated_qa.json"),
		StopwordsPath:      getEnv("STOPWORDS_PATH", ""),
		CoverageDir:        getEnv("COVERAGE_DIR", "./docs/content/subjects"),
		DefaultRetriever:   strings.ToLower(getEnv("DEFAULT_RETRIEVER", "auto")),
		QdrantURL:          getEnv("QDRANT_URL", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "chunks"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	switch cfg.DefaultRetriever {
	case "auto", "tfidf", "bm25", "dense":
	default:
		return nil, fmt.Errorf("DEFAULT_RETRIEVER must be one of auto, tfidf, bm25, dense, got %q", cfg.DefaultRetriever)
	}

	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be a valid duration: %w", err)
	}
	if cfg.RequestTimeout < 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"TFIDF_MAX_FEATURES", 4096, &cfg.TFIDFMaxFeatures},
		{"TFIDF_CACHE_SIZE", 64, &cfg.TFIDFCacheSize},
		{"ASK_MAX_CHARS", 900, &cfg.AskMaxChars},
		{"ASK_MAX_PASSAGES", 5, &cfg.AskMaxPassages},
	}
	for _, it := range ints {
		v, err := getPositiveInt(it.key, it.def)
		if err != nil {
			return nil, err
		}
		*it.dst = v
	}

	if cfg.PartialMin, err = getPercent("VALIDATE_PARTIAL_MIN", 50); err != nil {
		return nil, err
	}
	if cfg.CorrectMin, err = getPercent("VALIDATE_CORRECT_MIN", 80); err != nil {
		return nil, err
	}

	// QDRANT_VECTOR_SIZE must match the output size of the embeddings model.
	// If it changes, the Qdrant collection must be recreated.
	if cfg.DenseEnabled() {
		vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
		if vectorSizeStr == "" {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required when QDRANT_URL is set")
		}
		vectorSize, err := strconv.Atoi(vectorSizeStr)
		if err != nil {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
		}
		if vectorSize <= 0 {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
		}
		cfg.QdrantVectorSize = vectorSize
	}

	// Create ./data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if cfg.UploadDir != "" {
		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func getPercent(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("%s must be between 0 and 100", key)
	}
	return v, nil
}
