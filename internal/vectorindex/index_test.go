package vectorindex

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomVectors(seed uint64, n, dim int) [][]float32 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for d := range v {
			v[d] = rng.Float32()*2 - 1
		}
		out[i] = v
	}
	return out
}

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-7)
	assert.InDelta(t, 0.8, v[1], 1e-7)
	assert.InDelta(t, 1.0, L2Norm(v), 1e-6)

	_, err = Normalize([]float32{0, 0, 0})
	assert.ErrorIs(t, err, ErrDegenerateVector)

	_, err = Normalize([]float32{float32(math.NaN()), 1})
	assert.ErrorIs(t, err, ErrDegenerateVector)
}

func TestInnerProductOfUnitVectorsIsCosine(t *testing.T) {
	vecs := randomVectors(7, 50, 64)
	for i := 1; i < len(vecs); i++ {
		a, err := Normalize(vecs[i-1])
		require.NoError(t, err)
		b, err := Normalize(vecs[i])
		require.NoError(t, err)
		assert.InDelta(t, Cosine(vecs[i-1], vecs[i]), float64(Dot(a, b)), 1e-6)
	}
}

func TestFlat_SearchMatchesCosine(t *testing.T) {
	vecs := randomVectors(1, 20, 32)
	idx, err := Build(KindFlat, 32, vecs, Options{})
	require.NoError(t, err)
	assert.Equal(t, 20, idx.Len())

	query := randomVectors(99, 1, 32)[0]
	hits, err := idx.Search(query, DefaultK)
	require.NoError(t, err)
	require.Len(t, hits, DefaultK)

	for i, h := range hits {
		assert.InDelta(t, Cosine(query, vecs[h.Row]), float64(h.Score), 1e-6)
		if i > 0 {
			assert.GreaterOrEqual(t, hits[i-1].Score, h.Score)
		}
	}

	// best hit really is the best row
	best := 0
	for i := range vecs {
		if Cosine(query, vecs[i]) > Cosine(query, vecs[best]) {
			best = i
		}
	}
	assert.Equal(t, best, hits[0].Row)
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	for _, kind := range []Kind{KindFlat, KindPQ} {
		t.Run(string(kind), func(t *testing.T) {
			vecs := randomVectors(3, 3, 16)
			idx, err := Build(kind, 16, vecs, Options{Subvectors: 4})
			require.NoError(t, err)

			hits, err := idx.Search(vecs[0], DefaultK)
			require.NoError(t, err)
			assert.Len(t, hits, 3)
			for _, h := range hits {
				assert.GreaterOrEqual(t, h.Row, 0)
				assert.Less(t, h.Row, 3)
			}
			assert.Equal(t, 0, hits[0].Row)
		})
	}
}

func TestSearch_NonPositiveK(t *testing.T) {
	idx, err := Build(KindFlat, 4, randomVectors(2, 3, 4), Options{})
	require.NoError(t, err)
	hits, err := idx.Search([]float32{1, 0, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_DegenerateQuery(t *testing.T) {
	for _, kind := range []Kind{KindFlat, KindPQ} {
		t.Run(string(kind), func(t *testing.T) {
			zero := [][]float32{{0, 0, 0, 0}, {0, 0, 0, 0}}
			idx, err := Build(kind, 4, zero, Options{Subvectors: 2})
			require.NoError(t, err)

			_, err = idx.Search([]float32{0, 0, 0, 0}, DefaultK)
			assert.ErrorIs(t, err, ErrDegenerateVector)
		})
	}
}

func TestBuild_DegenerateCorpusRowScoresZero(t *testing.T) {
	idx, err := Build(KindFlat, 2, [][]float32{{0, 0}, {1, 0}}, Options{})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, Hit{Row: 1, Score: 1}, hits[0])
	assert.Equal(t, Hit{Row: 0, Score: 0}, hits[1])
}

func TestBuild_DimensionMismatch(t *testing.T) {
	_, err := Build(KindFlat, 3, [][]float32{{1, 2}}, Options{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	idx, err := Build(KindFlat, 2, [][]float32{{1, 2}}, Options{})
	require.NoError(t, err)
	_, err = idx.Search([]float32{1, 2, 3}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBuild_Idempotent(t *testing.T) {
	vecs := randomVectors(11, 300, 32)
	query := randomVectors(12, 1, 32)[0]

	for _, kind := range []Kind{KindFlat, KindPQ} {
		t.Run(string(kind), func(t *testing.T) {
			a, err := Build(kind, 32, vecs, Options{Subvectors: 4})
			require.NoError(t, err)
			b, err := Build(kind, 32, vecs, Options{Subvectors: 4})
			require.NoError(t, err)

			ha, err := a.Search(query, DefaultK)
			require.NoError(t, err)
			hb, err := b.Search(query, DefaultK)
			require.NoError(t, err)
			assert.Equal(t, ha, hb)
		})
	}
}

func TestPQ_SmallCorpusIsExact(t *testing.T) {
	// with no more rows than centroids every row is its own centroid
	vecs := randomVectors(5, 10, 16)
	pq, err := Build(KindPQ, 16, vecs, Options{Subvectors: 4})
	require.NoError(t, err)
	flat, err := Build(KindFlat, 16, vecs, Options{})
	require.NoError(t, err)

	query := randomVectors(6, 1, 16)[0]
	hp, err := pq.Search(query, DefaultK)
	require.NoError(t, err)
	hf, err := flat.Search(query, DefaultK)
	require.NoError(t, err)

	require.Len(t, hp, len(hf))
	for i := range hf {
		assert.Equal(t, hf[i].Row, hp[i].Row)
		assert.InDelta(t, hf[i].Score, hp[i].Score, 1e-5)
	}
}

func TestPQ_LargeCorpusApproximatesCosine(t *testing.T) {
	vecs := randomVectors(21, 600, 32)
	idx, err := Build(KindPQ, 32, vecs, Options{Subvectors: 8, TrainIterations: 10})
	require.NoError(t, err)

	pq := idx.(*PQ)
	assert.Equal(t, 256, pq.Centroids())
	assert.Equal(t, 8, pq.Subvectors())
	assert.Equal(t, 600, pq.Len())

	// querying with a stored vector should rank it at or near the top
	hits, err := idx.Search(vecs[42], 10)
	require.NoError(t, err)
	rows := make([]int, len(hits))
	for i, h := range hits {
		rows[i] = h.Row
	}
	assert.Contains(t, rows, 42)
}

func TestAdd_ContinuesRows(t *testing.T) {
	vecs := randomVectors(8, 4, 8)
	for _, kind := range []Kind{KindFlat, KindPQ} {
		t.Run(string(kind), func(t *testing.T) {
			idx, err := Build(kind, 8, vecs[:3], Options{Subvectors: 2})
			require.NoError(t, err)
			require.NoError(t, idx.Add(vecs[3:]))
			assert.Equal(t, 4, idx.Len())

			hits, err := idx.Search(vecs[3], 4)
			require.NoError(t, err)
			assert.Len(t, hits, 4)
		})
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	_, err := Build(Kind("hnsw"), 4, randomVectors(1, 2, 4), Options{})
	assert.Error(t, err)
}
