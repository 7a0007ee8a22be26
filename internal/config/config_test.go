package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{"OPENAI_API_KEY": "sk-test"}))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ProviderOpenAI, cfg.EmbeddingProvider)
	assert.Equal(t, "text-embedding-ada-002", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDim)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.EmbeddingTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, IndexFlat, cfg.IndexType)
	assert.InDelta(t, 0.80, cfg.SimilarityThreshold, 1e-9)
	assert.Equal(t, filepath.Join("./vectordb", "jobs_index.bin"), cfg.IndexPath())
	assert.Equal(t, filepath.Join("./vectordb", "jobs_mapping.json"), cfg.MappingPath())
	assert.Equal(t, filepath.Join("./vectordb", "jobs_masterdata.json"), cfg.MasterDataPath())
	assert.Empty(t, cfg.DatabaseURL)
}

func TestFromEnv_GoogleAIDefaultsModel(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"EMBEDDING_PROVIDER": "GoogleAI",
		"GEMINI_API_KEY":     "g-key",
	}))
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogleAI, cfg.EmbeddingProvider)
	assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.EmbeddingDim)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing openai key",
			env:     map[string]string{},
			wantErr: "OPENAI_API_KEY is required",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"EMBEDDING_PROVIDER": "cohere"},
			wantErr: "EMBEDDING_PROVIDER must be",
		},
		{
			name:    "bad integer",
			env:     map[string]string{"OPENAI_API_KEY": "k", "EMBEDDING_DIM": "lots"},
			wantErr: "EMBEDDING_DIM: invalid integer",
		},
		{
			name:    "unknown index type",
			env:     map[string]string{"OPENAI_API_KEY": "k", "INDEX_TYPE": "hnsw"},
			wantErr: "INDEX_TYPE must be",
		},
		{
			name:    "pq subvectors do not divide dimension",
			env:     map[string]string{"OPENAI_API_KEY": "k", "INDEX_TYPE": "pq", "PQ_SUBVECTORS": "7"},
			wantErr: "PQ_SUBVECTORS (7)",
		},
		{
			name:    "threshold out of range",
			env:     map[string]string{"OPENAI_API_KEY": "k", "SIMILARITY_THRESHOLD": "1.5"},
			wantErr: "SIMILARITY_THRESHOLD must be within",
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"OPENAI_API_KEY": "k", "EMBEDDING_TIMEOUT": "soon"},
			wantErr: "EMBEDDING_TIMEOUT: invalid duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
