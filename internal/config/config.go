package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"

	IndexFlat = "flat"
	IndexPQ   = "pq"
)

// Config holds every setting the service reads at startup.
// It is built once in main and handed to each component.
type Config struct {
	Port    string
	GinMode string

	EmbeddingProvider string
	OpenAIKey         string
	OpenAIBaseURL     string
	GeminiKey         string
	EmbeddingModel    string
	EmbeddingDim      int
	BatchSize         int
	EmbeddingTimeout  time.Duration
	MaxRetries        int
	CacheSize         int

	IndexType    string
	PQSubvectors int

	OutputDir      string
	IndexFile      string
	MappingFile    string
	MasterDataFile string
	DataPath       string

	SimilarityThreshold float64

	DatabaseURL string
}

// Load reads .env (if present) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  Could not parse .env file: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Tests pass a map-backed lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		Port:              r.str("PORT", "8000"),
		GinMode:           r.str("GIN_MODE", ""),
		EmbeddingProvider: strings.ToLower(r.str("EMBEDDING_PROVIDER", ProviderOpenAI)),
		OpenAIKey:         r.str("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     r.str("OPENAI_BASE_URL", ""),
		GeminiKey:         r.str("GEMINI_API_KEY", ""),
		BatchSize:         r.int("EMBEDDING_BATCH_SIZE", 100),
		EmbeddingTimeout:  r.duration("EMBEDDING_TIMEOUT", 30*time.Second),
		MaxRetries:        r.int("EMBEDDING_MAX_RETRIES", 3),
		CacheSize:         r.int("EMBEDDING_CACHE_SIZE", 2048),
		IndexType:         strings.ToLower(r.str("INDEX_TYPE", IndexFlat)),
		PQSubvectors:      r.int("PQ_SUBVECTORS", 8),
		OutputDir:         r.str("OUTPUT_DIR", "./vectordb"),
		IndexFile:         r.str("INDEX_FILE", "jobs_index.bin"),
		MappingFile:       r.str("MAPPING_FILE", "jobs_mapping.json"),
		MasterDataFile:    r.str("MASTER_DATA_FILE", "jobs_masterdata.json"),
		DataPath:          r.str("DATA_PATH", ""),

		SimilarityThreshold: r.float("SIMILARITY_THRESHOLD", 0.80),
		DatabaseURL:         r.str("DATABASE_URL", ""),
	}

	defaultModel, defaultDim := "text-embedding-ada-002", 1536
	if cfg.EmbeddingProvider == ProviderGoogleAI {
		defaultModel, defaultDim = "text-embedding-004", 768
	}
	cfg.EmbeddingModel = r.str("EMBEDDING_MODEL", defaultModel)
	cfg.EmbeddingDim = r.int("EMBEDDING_DIM", defaultDim)

	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.EmbeddingProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderGoogleAI:
		if c.GeminiKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the googleai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMBEDDING_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGoogleAI, c.EmbeddingProvider))
	}

	if c.EmbeddingModel == "" {
		errs = append(errs, errors.New("EMBEDDING_MODEL must not be empty"))
	}
	if c.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_BATCH_SIZE must be positive, got %d", c.BatchSize))
	}
	if c.EmbeddingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_TIMEOUT must be positive, got %s", c.EmbeddingTimeout))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_MAX_RETRIES must be at least 1, got %d", c.MaxRetries))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_CACHE_SIZE must not be negative, got %d", c.CacheSize))
	}

	switch c.IndexType {
	case IndexFlat:
	case IndexPQ:
		if c.PQSubvectors <= 0 || c.EmbeddingDim%c.PQSubvectors != 0 {
			errs = append(errs, fmt.Errorf("PQ_SUBVECTORS (%d) must be positive and divide EMBEDDING_DIM (%d)", c.PQSubvectors, c.EmbeddingDim))
		}
	default:
		errs = append(errs, fmt.Errorf("INDEX_TYPE must be %q or %q, got %q", IndexFlat, IndexPQ, c.IndexType))
	}

	if c.OutputDir == "" || c.IndexFile == "" || c.MappingFile == "" || c.MasterDataFile == "" {
		errs = append(errs, errors.New("OUTPUT_DIR and artifact file names must not be empty"))
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be within [-1, 1], got %v", c.SimilarityThreshold))
	}

	return errors.Join(errs...)
}

// Paths of the cached artifacts.
func (c *Config) IndexPath() string      { return filepath.Join(c.OutputDir, c.IndexFile) }
func (c *Config) MappingPath() string    { return filepath.Join(c.OutputDir, c.MappingFile) }
func (c *Config) MasterDataPath() string { return filepath.Join(c.OutputDir, c.MasterDataFile) }

// CatalogDir holds the artifacts of the uploaded dataset, separate from the per-request cache.
func (c *Config) CatalogDir() string { return filepath.Join(c.OutputDir, "catalog") }

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
