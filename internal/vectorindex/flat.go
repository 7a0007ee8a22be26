package vectorindex

import "fmt"

// Flat is an exact inner-product index.
type Flat struct {
	dim  int
	data []float32
}

func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

func (f *Flat) Kind() Kind { return KindFlat }
func (f *Flat) Dim() int   { return f.dim }
func (f *Flat) Len() int   { return len(f.data) / f.dim }

func (f *Flat) Add(vectors [][]float32) error {
	normalized, err := normalizeCorpus(f.dim, vectors)
	if err != nil {
		return err
	}
	f.appendNormalized(normalized)
	return nil
}

func (f *Flat) appendNormalized(vectors [][]float32) {
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
}

func (f *Flat) row(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim]
}

func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if f.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	q, err := prepareQuery(f.dim, query)
	if err != nil {
		return nil, err
	}

	scores := make([]float32, f.Len())
	for i := range scores {
		scores[i] = Dot(q, f.row(i))
	}
	return topK(scores, k), nil
}

func (f *Flat) String() string {
	return fmt.Sprintf("Flat(dim=%d, rows=%d)", f.dim, f.Len())
}
