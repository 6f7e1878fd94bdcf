package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// init loads .env files during package initialization so local development can
// keep the Gemini key out of the shell profile. godotenv never overrides
// variables already present in the environment, preserving OS env precedence.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// StorageBackend selects where the library blobs live.
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageS3       = "s3"
)

// ObjectStoreConfig captures the settings for the S3 blob backend.
type ObjectStoreConfig struct {
	Endpoint string
	Region   string
	Bucket   string
	Prefix   string
}

// Config captures the runtime configuration for the llumina vault backend.
type Config struct {
	AppPort          int
	LogLevel         string
	DataDir          string
	StorageBackend   string
	DatabaseURL      string
	ObjectStore      ObjectStoreConfig
	GeminiAPIKey     string
	GeminiModel      string
	MetadataCacheTTL time.Duration
	AccessKey        string
}

// Load reads configuration from environment variables, applying sensible
// defaults for local development while allowing overrides per variable.
func Load() (Config, error) {
	cfg := Config{
		AppPort:        getInt("LLUMINA_PORT", 8080),
		LogLevel:       getString("LLUMINA_LOG_LEVEL", "info"),
		DataDir:        getString("LLUMINA_DATA_DIR", "data"),
		StorageBackend: getString("LLUMINA_STORAGE", StorageFile),
		DatabaseURL:    getString("LLUMINA_DATABASE_URL", ""),
		ObjectStore: ObjectStoreConfig{
			Endpoint: getString("LLUMINA_S3_ENDPOINT", ""),
			Region:   getString("LLUMINA_S3_REGION", "us-east-1"),
			Bucket:   getString("LLUMINA_S3_BUCKET", ""),
			Prefix:   getString("LLUMINA_S3_PREFIX", "llumina"),
		},
		GeminiAPIKey:     getString("LLUMINA_GEMINI_API_KEY", ""),
		GeminiModel:      getString("LLUMINA_GEMINI_MODEL", "gemini-3-flash-preview"),
		MetadataCacheTTL: getDuration("LLUMINA_METADATA_CACHE_TTL", 15*time.Minute),
		AccessKey:        getString("LLUMINA_ACCESS_KEY", ""),
	}

	switch cfg.StorageBackend {
	case StorageFile, StorageMemory, StoragePostgres, StorageS3:
	default:
		return cfg, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	if cfg.StorageBackend == StoragePostgres && cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("LLUMINA_DATABASE_URL is required for the postgres backend")
	}
	if cfg.StorageBackend == StorageS3 && cfg.ObjectStore.Bucket == "" {
		return cfg, fmt.Errorf("LLUMINA_S3_BUCKET is required for the s3 backend")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
