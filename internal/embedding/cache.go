package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached remembers vectors by content hash so unchanged job texts are embedded once.
type Cached struct {
	next  Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached wraps next with an LRU of the given size. A size of 0 returns next unchanged.
func NewCached(next Embedder, size int) (Embedder, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Dimension() int { return c.next.Dimension() }
func (c *Cached) Model() string  { return c.next.Model() }
func (c *Cached) Len() int       { return c.cache.Len() }

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(c.next.Model() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// unique missing texts and where they go
	var missing []string
	positions := make(map[string][]int)
	for i, text := range texts {
		k := c.key(text)
		if v, ok := c.cache.Get(k); ok {
			out[i] = v
			continue
		}
		if _, queued := positions[k]; !queued {
			missing = append(missing, text)
		}
		positions[k] = append(positions[k], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedDocuments(ctx, missing)
	var batchErr *BatchError
	if err != nil && !errors.As(err, &batchErr) {
		return nil, err
	}
	if batchErr != nil {
		vecs = batchErr.Vectors
	}

	var failed []FailedInput
	failedAt := make(map[int]error)
	if batchErr != nil {
		for _, f := range batchErr.Failed {
			failedAt[f.Index] = f.Err
		}
	}
	for j, text := range missing {
		k := c.key(text)
		if ferr, bad := failedAt[j]; bad {
			for _, i := range positions[k] {
				failed = append(failed, FailedInput{Index: i, Err: ferr})
			}
			continue
		}
		c.cache.Add(k, vecs[j])
		for _, i := range positions[k] {
			out[i] = vecs[j]
		}
	}

	if len(failed) > 0 {
		slices.SortFunc(failed, func(a, b FailedInput) int { return a.Index - b.Index })
		return nil, &BatchError{Total: len(texts), Failed: failed, Vectors: out}
	}
	return out, nil
}

func (c *Cached) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	k := c.key(text)
	if v, ok := c.cache.Get(k); ok {
		return v, nil
	}
	v, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(k, v)
	return v, nil
}
