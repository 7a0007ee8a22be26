// Package embedding turns text into dense vectors through an external embedding API.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tmc/langchaingo/embeddings"
)

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Model() string
}

var ErrMalformedResponse = errors.New("malformed embedding response")

type Config struct {
	Model      string
	Dimension  int
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c *Config) setDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 8 * time.Second
	}
}

// Client wraps a langchaingo embedder with batching, per-call timeouts and retries.
type Client struct {
	embedder *embeddings.EmbedderImpl
	cfg      Config
}

// NewClient builds a Client over any langchaingo embedding backend (openai, googleai, ...).
func NewClient(backend embeddings.EmbedderClient, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, errors.New("embedding backend is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", cfg.Dimension)
	}
	cfg.setDefaults()

	// job texts are multi-line on purpose, keep the newlines
	e, err := embeddings.NewEmbedder(backend,
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &Client{embedder: e, cfg: cfg}, nil
}

func (c *Client) Dimension() int { return c.cfg.Dimension }
func (c *Client) Model() string  { return c.cfg.Model }

// EmbedDocuments embeds texts batch by batch. When some batches fail after all retries
// the returned error is a *BatchError naming every failed input; vectors of the
// successful batches are available on it.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	var failed []FailedInput
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(texts))
		batch := texts[start:end]

		vecs, err := c.withRetry(ctx, fmt.Sprintf("batch %d-%d", start, end-1), func(callCtx context.Context) ([][]float32, error) {
			vecs, err := c.embedder.EmbedDocuments(callCtx, batch)
			if err != nil {
				return nil, err
			}
			if len(vecs) != len(batch) {
				return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrMalformedResponse, len(vecs), len(batch))
			}
			for i, v := range vecs {
				if err := c.checkDim(v); err != nil {
					return nil, fmt.Errorf("input %d: %w", start+i, err)
				}
			}
			return vecs, nil
		})
		if err != nil {
			for i := start; i < end; i++ {
				failed = append(failed, FailedInput{Index: i, Err: err})
			}
			if ctx.Err() != nil {
				// no point trying the remaining batches
				for i := end; i < len(texts); i++ {
					failed = append(failed, FailedInput{Index: i, Err: ctx.Err()})
				}
				break
			}
			continue
		}
		copy(vectors[start:end], vecs)
	}

	if len(failed) > 0 {
		return nil, &BatchError{Total: len(texts), Failed: failed, Vectors: vectors}
	}
	return vectors, nil
}

// EmbedQuery embeds a single text.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.withRetry(ctx, "query", func(callCtx context.Context) ([][]float32, error) {
		v, err := c.embedder.EmbedQuery(callCtx, text)
		if err != nil {
			return nil, err
		}
		if err := c.checkDim(v); err != nil {
			return nil, err
		}
		return [][]float32{v}, nil
	})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Client) checkDim(v []float32) error {
	if len(v) != c.cfg.Dimension {
		return fmt.Errorf("%w: vector has %d dimensions, want %d", ErrMalformedResponse, len(v), c.cfg.Dimension)
	}
	return nil
}

// withRetry runs call with exponential, jittered backoff. Each attempt gets its own
// timeout. Malformed responses and cancellation of ctx are not retried.
func (c *Client) withRetry(ctx context.Context, what string, call func(context.Context) ([][]float32, error)) ([][]float32, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries-1)), ctx)

	attempt := 0
	op := func() ([][]float32, error) {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		vecs, err := call(callCtx)
		if err == nil {
			return vecs, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, ErrMalformedResponse) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("⚠️  Embedding %s attempt %d/%d failed: %v. Retrying in %v...", what, attempt, c.cfg.MaxRetries, err, wait.Round(time.Millisecond))
	}

	vecs, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		return nil, fmt.Errorf("embed %s after %d attempt(s): %w", what, attempt, err)
	}
	return vecs, nil
}
