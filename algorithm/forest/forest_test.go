package forest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/internal/queue"
)

func randomMatrix(t *testing.T, rows, dim int, seed int64) *dataset.Matrix {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	m, err := dataset.New(rows, dim)
	require.NoError(t, err)
	for i := range m.Data() {
		m.Data()[i] = rng.Float32()
	}
	return m
}

func TestCapabilities(t *testing.T) {
	f := New()
	assert.Equal(t, "forest", f.Name())
	assert.False(t, f.SupportsRangeSearch())
	assert.True(t, f.RequiresTuning())
}

func TestGrid(t *testing.T) {
	grid := New().Grid()
	require.Len(t, grid, 4)
	assert.Equal(t, 10, grid[0]["n_trees"])
	assert.Equal(t, 100, grid[3]["n_trees"])
}

func TestSetParams(t *testing.T) {
	f := New()

	require.NoError(t, f.SetParams(algorithm.Params{"n_trees": 50}))
	assert.Equal(t, algorithm.Params{"n_trees": 50}, f.TunedParams())

	require.NoError(t, f.SetParams(algorithm.Params{"n_trees": float64(20)}))
	assert.Equal(t, 20, f.TunedParams()["n_trees"])

	assert.Error(t, f.SetParams(algorithm.Params{}))
	assert.Error(t, f.SetParams(algorithm.Params{"n_trees": 0}))
}

func TestRangeSearchIsCapabilityMismatch(t *testing.T) {
	queries := randomMatrix(t, 1, 4, 1)

	_, err := New().BatchRangeSearch(queries, 0.5)
	require.Error(t, err)
	assert.IsType(t, &algorithm.ErrCapabilityMismatch{}, err)
}

func TestRecallAgainstBruteForce(t *testing.T) {
	train := randomMatrix(t, 800, 8, 2)
	queries := randomMatrix(t, 20, 8, 3)
	const k = 10

	f := New(func(o *Options) { o.NumTrees = 50 })
	_, err := f.Build(context.Background(), train, distance.Euclidean)
	require.NoError(t, err)

	res, err := f.BatchKNNSearch(queries, k)
	require.NoError(t, err)

	var hits int
	for qi := 0; qi < queries.Rows(); qi++ {
		truth := map[uint32]bool{}
		h := queue.NewMax(k)
		for i := 0; i < train.Rows(); i++ {
			h.PushBounded(queue.Item{ID: uint32(i), Distance: distance.L2(queries.Row(qi), train.Row(i))}, k)
		}
		for _, item := range h.Drain() {
			truth[item.ID] = true
		}

		_, ids := res.Row(qi)
		require.Len(t, ids, k)
		for _, id := range ids {
			if truth[id] {
				hits++
			}
		}
	}
	// 50 trees on a small set should recover most true neighbors.
	assert.GreaterOrEqual(t, hits, 160, "recall below 0.8")
}

func TestShapeInvariantWithTinyTrees(t *testing.T) {
	train := randomMatrix(t, 100, 4, 4)
	queries := randomMatrix(t, 3, 4, 5)

	f := New(func(o *Options) {
		o.NumTrees = 1
		o.LeafSize = 2
	})
	_, err := f.Build(context.Background(), train, distance.Euclidean)
	require.NoError(t, err)

	res, err := f.BatchKNNSearch(queries, 20)
	require.NoError(t, err)
	assert.Len(t, res.IDs, 60)
}

func TestNotBuilt(t *testing.T) {
	queries := randomMatrix(t, 1, 4, 6)
	_, err := New().BatchKNNSearch(queries, 1)
	assert.ErrorIs(t, err, algorithm.ErrNotBuilt)
}
