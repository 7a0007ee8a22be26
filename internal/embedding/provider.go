package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/justsurfingit/job-recommender/internal/config"
)

// NewFromConfig wires the configured provider, retry policy and cache.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Embedder, error) {
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(backend, Config{
		Model:      cfg.EmbeddingModel,
		Dimension:  cfg.EmbeddingDim,
		BatchSize:  cfg.BatchSize,
		Timeout:    cfg.EmbeddingTimeout,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	return NewCached(client, cfg.CacheSize)
}

func newBackend(ctx context.Context, cfg *config.Config) (embeddings.EmbedderClient, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAIKey),
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return llm, nil

	case config.ProviderGoogleAI:
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiKey),
			googleai.WithDefaultEmbeddingModel(cfg.EmbeddingModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai client: %w", err)
		}
		return llm, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}
