// Package embeddingtest provides a deterministic in-memory Embedder for tests.
package embeddingtest

import (
	"context"
	"strings"
	"sync"
)

// Keyword embeds a text as the one-hot vector of the first keyword it contains
// (case-insensitive). Texts with no keyword get the last axis. Texts containing
// ZeroWord get the zero vector.
type Keyword struct {
	Keywords []string
	ZeroWord string
	// Err, when set, is returned by every call.
	Err error

	mu         sync.Mutex
	docCalls   int
	queryCalls int
}

func NewKeyword(keywords ...string) *Keyword {
	return &Keyword{Keywords: keywords, ZeroWord: "zzzero"}
}

func (k *Keyword) Dimension() int { return len(k.Keywords) + 1 }
func (k *Keyword) Model() string  { return "keyword-test" }

func (k *Keyword) Vector(text string) []float32 {
	v := make([]float32, k.Dimension())
	lower := strings.ToLower(text)
	if k.ZeroWord != "" && strings.Contains(lower, k.ZeroWord) {
		return v
	}
	for i, kw := range k.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			v[i] = 1
			return v
		}
	}
	v[len(v)-1] = 1
	return v
}

func (k *Keyword) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	k.mu.Lock()
	k.docCalls++
	k.mu.Unlock()
	if k.Err != nil {
		return nil, k.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = k.Vector(t)
	}
	return out, nil
}

func (k *Keyword) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	k.mu.Lock()
	k.queryCalls++
	k.mu.Unlock()
	if k.Err != nil {
		return nil, k.Err
	}
	return k.Vector(text), nil
}

// DocumentCalls is the number of EmbedDocuments calls so far.
func (k *Keyword) DocumentCalls() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.docCalls
}

func (k *Keyword) QueryCalls() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.queryCalls
}
