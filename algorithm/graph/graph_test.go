package graph

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
	g := New()
	assert.Equal(t, "graph", g.Name())
	assert.False(t, g.SupportsRangeSearch())
	assert.True(t, g.RequiresTuning())
}

func TestGrid(t *testing.T) {
	grid := New().Grid()
	require.Len(t, grid, 9)

	// Cheapest construction first.
	assert.Equal(t, 100, grid[0]["ef_construction"])
	assert.Equal(t, 8, grid[0]["M"])
	assert.Equal(t, 500, grid[len(grid)-1]["ef_construction"])
	assert.Equal(t, 32, grid[len(grid)-1]["M"])
}

func TestSetParams(t *testing.T) {
	g := New()

	require.NoError(t, g.SetParams(algorithm.Params{"M": 32, "ef_construction": 200}))
	assert.Equal(t, 32, g.TunedParams()["M"])
	assert.Equal(t, 200, g.TunedParams()["ef_construction"])

	assert.Error(t, g.SetParams(algorithm.Params{"M": 32}))
	assert.Error(t, g.SetParams(algorithm.Params{"M": 1, "ef_construction": 100}))
}

func TestRangeSearchIsCapabilityMismatch(t *testing.T) {
	queries := randomMatrix(t, 1, 4, 1)

	_, err := New().BatchRangeSearch(queries, 0.5)
	require.Error(t, err)
	assert.IsType(t, &algorithm.ErrCapabilityMismatch{}, err)
}

func TestRecallAgainstBruteForce(t *testing.T) {
	train := randomMatrix(t, 1000, 16, 2)
	queries := randomMatrix(t, 20, 16, 3)
	const k = 10

	g := New()
	info, err := g.Build(context.Background(), train, distance.Euclidean)
	require.NoError(t, err)
	assert.Equal(t, 1000, info.Cardinality)

	res, err := g.BatchKNNSearch(queries, k)
	require.NoError(t, err)
	require.Equal(t, 20, res.NumQueries)

	// High-recall sanity bound: at least 9 of 10 true neighbors on average.
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
		for _, id := range ids {
			if truth[id] {
				hits++
			}
		}
	}
	assert.GreaterOrEqual(t, hits, 180, "recall below 0.9")
}

func TestResultsSortedAscending(t *testing.T) {
	train := randomMatrix(t, 200, 8, 4)
	queries := randomMatrix(t, 5, 8, 5)

	g := New()
	_, err := g.Build(context.Background(), train, distance.Euclidean)
	require.NoError(t, err)

	res, err := g.BatchKNNSearch(queries, 5)
	require.NoError(t, err)

	for qi := 0; qi < 5; qi++ {
		dists, _ := res.Row(qi)
		for i := 1; i < len(dists); i++ {
			assert.LessOrEqual(t, dists[i-1], dists[i])
		}
	}
}

func TestNotBuilt(t *testing.T) {
	queries := randomMatrix(t, 1, 4, 6)
	_, err := New().BatchKNNSearch(queries, 1)
	assert.ErrorIs(t, err, algorithm.ErrNotBuilt)
}

func TestCosineBuild(t *testing.T) {
	train := randomMatrix(t, 100, 8, 7)

	g := New()
	_, err := g.Build(context.Background(), train, distance.Cosine)
	require.NoError(t, err)

	queries := randomMatrix(t, 3, 8, 8)
	res, err := g.BatchKNNSearch(queries, 3)
	require.NoError(t, err)

	for qi := 0; qi < 3; qi++ {
		dists, _ := res.Row(qi)
		for _, d := range dists {
			assert.GreaterOrEqual(t, float64(d), -1e-5)
			assert.LessOrEqual(t, float64(d), 2.0+1e-5)
		}
	}
}
