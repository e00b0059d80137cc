package recall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/result"
)

func neighbors(indices ...int) []result.Neighbor {
	row := make([]result.Neighbor, len(indices))
	for i, idx := range indices {
		row[i] = result.Neighbor{Index: idx}
	}
	return row
}

func TestQuery(t *testing.T) {
	t.Run("perfect recall", func(t *testing.T) {
		assert.Equal(t, 1.0, Query(neighbors(1, 2, 3), neighbors(3, 1, 2)))
	})

	t.Run("partial recall", func(t *testing.T) {
		assert.InDelta(t, 0.5, Query(neighbors(1, 2, 3, 4), neighbors(1, 2, 9, 10)), 1e-12)
	})

	t.Run("zero recall", func(t *testing.T) {
		assert.Equal(t, 0.0, Query(neighbors(1, 2), neighbors(3, 4)))
	})

	t.Run("order does not matter", func(t *testing.T) {
		a := Query(neighbors(5, 6, 7), neighbors(7, 5, 6))
		b := Query(neighbors(5, 6, 7), neighbors(5, 6, 7))
		assert.Equal(t, a, b)
	})

	t.Run("duplicate candidates count once", func(t *testing.T) {
		assert.InDelta(t, 0.5, Query(neighbors(1, 2), neighbors(1, 1, 1)), 1e-12)
	})

	t.Run("distances are ignored", func(t *testing.T) {
		truth := []result.Neighbor{{Index: 1, Distance: 0.2}}
		cand := []result.Neighbor{{Index: 1, Distance: 99}}
		assert.Equal(t, 1.0, Query(truth, cand))
	})

	t.Run("empty truth", func(t *testing.T) {
		assert.Equal(t, 1.0, Query(nil, nil))
		// Spurious candidates against an empty truth set are a miss.
		assert.Equal(t, 0.0, Query(nil, neighbors(1)))
	})

	t.Run("empty candidates against non-empty truth", func(t *testing.T) {
		assert.Equal(t, 0.0, Query(neighbors(1), nil))
	})
}

func TestMean(t *testing.T) {
	t.Run("unweighted mean over queries", func(t *testing.T) {
		truth := [][]result.Neighbor{
			neighbors(1, 2),
			neighbors(3, 4),
		}
		cand := [][]result.Neighbor{
			neighbors(1, 2), // 1.0
			neighbors(3, 9), // 0.5
		}

		got, err := Mean(truth, cand)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, got, 1e-12)
	})

	t.Run("prefix scoring after a cut-short run", func(t *testing.T) {
		truth := [][]result.Neighbor{
			neighbors(1),
			neighbors(2),
			neighbors(3),
		}
		cand := [][]result.Neighbor{
			neighbors(1),
			neighbors(9),
		}

		got, err := Mean(truth, cand)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, got, 1e-12)
	})

	t.Run("more candidates than truth is an error", func(t *testing.T) {
		truth := [][]result.Neighbor{neighbors(1)}
		cand := [][]result.Neighbor{neighbors(1), neighbors(2)}

		_, err := Mean(truth, cand)
		require.Error(t, err)
	})

	t.Run("empty candidate set is an error", func(t *testing.T) {
		_, err := Mean(nil, nil)
		require.Error(t, err)
	})
}
