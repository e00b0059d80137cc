package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/distance"
)

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	va := make([]float32, 16)
	vb := make([]float32, 16)
	a.FillUniform(va)
	b.FillUniform(vb)
	assert.Equal(t, va, vb)

	a.Reset()
	vc := make([]float32, 16)
	a.FillUniform(vc)
	assert.Equal(t, va, vc)
}

func TestBruteKNN(t *testing.T) {
	rng := NewRNG(1)
	train := UniformMatrix(t, rng, 100, 8)

	queries := train.Slice(0, 5)
	truth := BruteKNN(train, queries, 3, distance.Euclidean)

	require.Len(t, truth, 5)
	for qi, row := range truth {
		require.Len(t, row, 3)
		// A training row's nearest neighbor is itself.
		assert.Equal(t, qi, row[0].Index)
		assert.Equal(t, float32(0), row[0].Distance)
		// Ascending by distance.
		assert.LessOrEqual(t, row[0].Distance, row[1].Distance)
		assert.LessOrEqual(t, row[1].Distance, row[2].Distance)
	}
}

func TestBruteRange(t *testing.T) {
	rng := NewRNG(2)
	train := UniformMatrix(t, rng, 100, 8)

	queries := train.Slice(0, 5)
	truth := BruteRange(train, queries, 0.1, distance.Euclidean)

	require.Len(t, truth, 5)
	for qi, row := range truth {
		require.NotEmpty(t, row)
		assert.Equal(t, qi, row[0].Index)
		for _, nb := range row {
			assert.LessOrEqual(t, nb.Distance, float32(0.1))
		}
	}
}

func TestBruteKNNCosine(t *testing.T) {
	rng := NewRNG(3)
	train := UniformMatrix(t, rng, 50, 8)

	queries := train.Slice(0, 3)
	truth := BruteKNN(train, queries, 2, distance.Cosine)

	require.Len(t, truth, 3)
	for qi, row := range truth {
		assert.Equal(t, qi, row[0].Index)
		assert.InDelta(t, 0, row[0].Distance, 1e-5)
	}
}

func TestClusteredMatrix(t *testing.T) {
	rng := NewRNG(4)
	m := ClusteredMatrix(t, rng, 60, 8, 3, 0.05)

	assert.Equal(t, 60, m.Rows())
	assert.Equal(t, 8, m.Dim())

	// Rows sharing a cluster sit closer than rows from different clusters
	// at this spread, in expectation; just sanity-check same-cluster rows.
	d := distance.L2(m.Row(0), m.Row(3))
	assert.Less(t, d, float32(2))
}
