package vectorindex

import (
	"errors"
	"fmt"
)

const (
	maxCentroids      = 256
	defaultTrainIters = 25
	defaultSubvectors = 8
)

var ErrUntrained = errors.New("pq index has no codebooks")

// PQ is a product-quantized index. Each vector is split into m subvectors and every
// subvector is replaced by the id of its nearest centroid, one byte per subspace.
// Scores are inner products between the query and the reconstructed vectors.
type PQ struct {
	dim  int
	m    int
	dsub int
	ksub int
	// centroids[j] holds ksub*dsub floats for subspace j.
	centroids [][]float32
	codes     []uint8
}

func (p *PQ) Kind() Kind { return KindPQ }
func (p *PQ) Dim() int   { return p.dim }
func (p *PQ) Len() int {
	if p.m == 0 {
		return 0
	}
	return len(p.codes) / p.m
}

// Subvectors and Centroids describe the codebook shape.
func (p *PQ) Subvectors() int { return p.m }
func (p *PQ) Centroids() int  { return p.ksub }

func trainPQ(dim int, vectors [][]float32, opts Options) (*PQ, error) {
	m := opts.Subvectors
	if m == 0 {
		m = defaultSubvectors
	}
	if m < 0 || dim%m != 0 {
		return nil, fmt.Errorf("pq: %d subvectors do not divide dimension %d", m, dim)
	}
	iters := opts.TrainIterations
	if iters <= 0 {
		iters = defaultTrainIters
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("pq: %w", ErrEmptyIndex)
	}

	p := &PQ{
		dim:       dim,
		m:         m,
		dsub:      dim / m,
		ksub:      min(maxCentroids, len(vectors)),
		centroids: make([][]float32, m),
	}
	for j := 0; j < m; j++ {
		p.centroids[j] = kmeans(p.subvectors(vectors, j), p.dsub, p.ksub, iters)
	}
	p.encode(vectors)
	return p, nil
}

func (p *PQ) subvectors(vectors [][]float32, j int) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = v[j*p.dsub : (j+1)*p.dsub]
	}
	return out
}

func (p *PQ) centroid(j, c int) []float32 {
	return p.centroids[j][c*p.dsub : (c+1)*p.dsub]
}

func (p *PQ) encode(vectors [][]float32) {
	for _, v := range vectors {
		for j := 0; j < p.m; j++ {
			sub := v[j*p.dsub : (j+1)*p.dsub]
			p.codes = append(p.codes, uint8(nearest(sub, p.centroids[j], p.dsub, p.ksub)))
		}
	}
}

// Add encodes vectors with the existing codebooks; it does not retrain.
func (p *PQ) Add(vectors [][]float32) error {
	if p.ksub == 0 {
		return ErrUntrained
	}
	normalized, err := normalizeCorpus(p.dim, vectors)
	if err != nil {
		return err
	}
	p.encode(normalized)
	return nil
}

func (p *PQ) Search(query []float32, k int) ([]Hit, error) {
	if p.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	q, err := prepareQuery(p.dim, query)
	if err != nil {
		return nil, err
	}

	// table[j*ksub+c] = <q_j, centroid_jc>
	table := make([]float32, p.m*p.ksub)
	for j := 0; j < p.m; j++ {
		qsub := q[j*p.dsub : (j+1)*p.dsub]
		for c := 0; c < p.ksub; c++ {
			table[j*p.ksub+c] = Dot(qsub, p.centroid(j, c))
		}
	}

	scores := make([]float32, p.Len())
	for i := range scores {
		code := p.codes[i*p.m : (i+1)*p.m]
		var s float32
		for j, c := range code {
			s += table[j*p.ksub+int(c)]
		}
		scores[i] = s
	}
	return topK(scores, k), nil
}

// Reconstruct returns the decoded approximation of a stored row.
func (p *PQ) Reconstruct(row int) []float32 {
	out := make([]float32, 0, p.dim)
	for j, c := range p.codes[row*p.m : (row+1)*p.m] {
		out = append(out, p.centroid(j, int(c))...)
	}
	return out
}

// kmeans runs Lloyd's algorithm. Initial centroids are evenly spaced samples, so the
// result depends only on the input order.
func kmeans(points [][]float32, dsub, k, iters int) []float32 {
	n := len(points)
	centroids := make([]float32, k*dsub)
	for c := 0; c < k; c++ {
		copy(centroids[c*dsub:(c+1)*dsub], points[c*n/k])
	}
	if k == n {
		// every point is its own centroid
		return centroids
	}

	assign := make([]int, n)
	sums := make([]float64, k*dsub)
	counts := make([]int, k)
	for it := 0; it < iters; it++ {
		changed := it == 0
		for i, pt := range points {
			c := nearest(pt, centroids, dsub, k)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		clear(sums)
		clear(counts)
		for i, pt := range points {
			c := assign[i]
			counts[c]++
			for d, x := range pt {
				sums[c*dsub+d] += float64(x)
			}
		}
		for c := 0; c < k; c++ {
			// empty clusters keep their previous centroid
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dsub; d++ {
				centroids[c*dsub+d] = float32(sums[c*dsub+d] / float64(counts[c]))
			}
		}
	}
	return centroids
}

func nearest(v, centroids []float32, dsub, k int) int {
	best, bestDist := 0, float32(0)
	for c := 0; c < k; c++ {
		d := squaredL2(v, centroids[c*dsub:(c+1)*dsub])
		if c == 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
