// Package vectorindex holds job embeddings and answers top-k cosine similarity queries.
//
// Vectors are L2-normalised on the way in, so the inner product the indexes compute is the
// cosine similarity of the original vectors. Two layouts exist: Flat stores vectors as-is
// and searches exhaustively; PQ compresses them with product quantization.
package vectorindex

import (
	"errors"
	"fmt"
	"slices"
)

type Kind string

const (
	KindFlat Kind = "flat"
	KindPQ   Kind = "pq"
)

// DefaultK is the number of neighbours returned per query.
const DefaultK = 5

var ErrEmptyIndex = errors.New("index has no vectors")

// Hit is one search result: the row the vector was added at and its similarity score.
type Hit struct {
	Row   int     `json:"row"`
	Score float32 `json:"score"`
}

// Index is an in-memory nearest-neighbour index over unit vectors.
// Implementations are not safe for concurrent Add; concurrent Search is fine.
type Index interface {
	Kind() Kind
	Dim() int
	Len() int
	// Add normalises and appends vectors; rows continue from Len().
	Add(vectors [][]float32) error
	// Search returns at most k hits ordered by descending score.
	Search(query []float32, k int) ([]Hit, error)
}

type Options struct {
	// Subvectors is the number of PQ subspaces; it must divide the dimension.
	Subvectors int
	// TrainIterations bounds k-means iterations per subspace.
	TrainIterations int
}

// Build creates a fresh index of the given kind containing vectors.
func Build(kind Kind, dim int, vectors [][]float32, opts Options) (Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	normalized, err := normalizeCorpus(dim, vectors)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFlat:
		idx := NewFlat(dim)
		idx.appendNormalized(normalized)
		return idx, nil
	case KindPQ:
		return trainPQ(dim, normalized, opts)
	default:
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}
}

// normalizeCorpus normalises every vector. A degenerate vector is kept as the zero vector
// so that it scores 0 against every query instead of poisoning the index with NaN.
func normalizeCorpus(dim int, vectors [][]float32) ([][]float32, error) {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("row %d: %w: got %d, want %d", i, ErrDimensionMismatch, len(v), dim)
		}
		n, err := Normalize(v)
		if errors.Is(err, ErrDegenerateVector) {
			n = make([]float32, dim)
		} else if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func prepareQuery(dim int, query []float32) ([]float32, error) {
	if len(query) != dim {
		return nil, fmt.Errorf("query: %w: got %d, want %d", ErrDimensionMismatch, len(query), dim)
	}
	return Normalize(query)
}

// topK orders scores descending (ties broken by lower row) and keeps the first k.
func topK(scores []float32, k int) []Hit {
	if k <= 0 || len(scores) == 0 {
		return []Hit{}
	}
	hits := make([]Hit, len(scores))
	for i, s := range scores {
		hits[i] = Hit{Row: i, Score: s}
	}
	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Row - b.Row
		}
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
