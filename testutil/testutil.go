package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/result"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Rand exposes the underlying generator for helpers that take *rand.Rand.
// The caller must not use it concurrently with other RNG methods.
func (r *RNG) Rand() *rand.Rand {
	return r.rand
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillGaussian fills dst with values from a standard normal distribution.
func (r *RNG) FillGaussian(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = float32(r.rand.NormFloat64())
	}
}

// ClusteredData generates row-major vectors grouped around random unit
// centroids. Clustered data is what partition- and graph-based indexes
// actually see in practice, so recall tests use it over pure noise.
func (r *RNG) ClusteredData(num, dim, clusters int, spread float32) []float32 {
	centroids := make([]float32, clusters*dim)
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := 0; c < clusters; c++ {
		vec := centroids[c*dim : (c+1)*dim]
		var norm float64
		for j := range vec {
			v := r.rand.NormFloat64()
			vec[j] = float32(v)
			norm += v * v
		}
		if norm == 0 {
			norm = 1
		}
		inv := float32(1.0 / math.Sqrt(norm))
		for j := range vec {
			vec[j] *= inv
		}
	}

	data := make([]float32, num*dim)
	for i := 0; i < num; i++ {
		centroid := centroids[(i%clusters)*dim : (i%clusters+1)*dim]
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
	}
	return data
}

// UniformMatrix builds a dataset matrix of uniform [0, 1) vectors.
func UniformMatrix(t *testing.T, rng *RNG, rows, dim int) *dataset.Matrix {
	t.Helper()

	data := make([]float32, rows*dim)
	rng.FillUniform(data)

	m, err := dataset.FromData(data, dim)
	require.NoError(t, err)
	return m
}

// ClusteredMatrix builds a dataset matrix of clustered vectors.
func ClusteredMatrix(t *testing.T, rng *RNG, rows, dim, clusters int, spread float32) *dataset.Matrix {
	t.Helper()

	m, err := dataset.FromData(rng.ClusteredData(rows, dim, clusters, spread), dim)
	require.NoError(t, err)
	return m
}

func distFuncFor(metric distance.Metric) distance.Func {
	fn, err := distance.Provider(metric)
	if err != nil {
		panic(err)
	}
	return fn
}

func normalized(train, queries *dataset.Matrix, metric distance.Metric) (*dataset.Matrix, *dataset.Matrix) {
	if !metric.NeedsNormalization() {
		return train, queries
	}
	tc, qc := train.Clone(), queries.Clone()
	tc.NormalizeL2()
	qc.NormalizeL2()
	return tc, qc
}

// BruteKNN computes exact k-nearest neighbor lists by full scan,
// independent of any backend. Results are sorted ascending by distance.
func BruteKNN(train, queries *dataset.Matrix, k int, metric distance.Metric) [][]result.Neighbor {
	distFunc := distFuncFor(metric)
	train, queries = normalized(train, queries, metric)

	out := make([][]result.Neighbor, queries.Rows())
	for qi := 0; qi < queries.Rows(); qi++ {
		q := queries.Row(qi)

		all := make([]result.Neighbor, train.Rows())
		for i := 0; i < train.Rows(); i++ {
			all[i] = result.Neighbor{Index: i, Distance: distFunc(q, train.Row(i))}
		}
		sort.Slice(all, func(a, b int) bool { return all[a].Distance < all[b].Distance })

		if k > len(all) {
			k = len(all)
		}
		out[qi] = all[:k]
	}
	return out
}

// BruteRange computes exact range-search neighbor lists by full scan.
// Results are sorted ascending by distance.
func BruteRange(train, queries *dataset.Matrix, radius float32, metric distance.Metric) [][]result.Neighbor {
	distFunc := distFuncFor(metric)
	train, queries = normalized(train, queries, metric)

	out := make([][]result.Neighbor, queries.Rows())
	for qi := 0; qi < queries.Rows(); qi++ {
		q := queries.Row(qi)

		var row []result.Neighbor
		for i := 0; i < train.Rows(); i++ {
			if d := distFunc(q, train.Row(i)); d <= radius {
				row = append(row, result.Neighbor{Index: i, Distance: d})
			}
		}
		sort.Slice(row, func(a, b int) bool { return row[a].Distance < row[b].Distance })
		out[qi] = row
	}
	return out
}
