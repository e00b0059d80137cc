package executor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/algorithm/flatscan"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/result"
)

func testQueries(t *testing.T, n, dim int) *dataset.Matrix {
	t.Helper()

	rows := make([][]float32, n)
	for i := range rows {
		row := make([]float32, dim)
		for j := range row {
			row[j] = float32(i*dim + j)
		}
		rows[i] = row
	}

	m, err := dataset.FromRows(rows)
	require.NoError(t, err)

	return m
}

func echoBatch(batch *dataset.Matrix) ([][]result.Neighbor, error) {
	rows := make([][]result.Neighbor, batch.Rows())
	for i := range rows {
		rows[i] = []result.Neighbor{{Index: i, Distance: 0}}
	}
	return rows, nil
}

func TestRun(t *testing.T) {
	t.Run("full query set within budget", func(t *testing.T) {
		queries := testQueries(t, 25, 4)

		out, err := Run(queries, 10, time.Minute, echoBatch)
		require.NoError(t, err)

		assert.Equal(t, 25, out.Processed)
		assert.Len(t, out.Results, 25)
		assert.False(t, out.Partial)
		assert.Greater(t, out.Throughput, 0.0)
	})

	t.Run("budget stops new batches but finishes the current one", func(t *testing.T) {
		queries := testQueries(t, 1000, 4)

		batches := 0
		slow := func(batch *dataset.Matrix) ([][]result.Neighbor, error) {
			batches++
			time.Sleep(300 * time.Millisecond)
			return echoBatch(batch)
		}

		out, err := Run(queries, 100, time.Second, slow)
		require.NoError(t, err)

		// 3 batches accumulate 0.9s (under budget), the 4th overshoots;
		// no 5th batch may start. Sleep jitter can only push the count down.
		assert.LessOrEqual(t, batches, 4)
		assert.GreaterOrEqual(t, batches, 3)
		assert.Equal(t, batches*100, out.Processed)
		assert.True(t, out.Partial)
	})

	t.Run("throughput uses only measured search time", func(t *testing.T) {
		queries := testQueries(t, 10, 4)

		slow := func(batch *dataset.Matrix) ([][]result.Neighbor, error) {
			time.Sleep(50 * time.Millisecond)
			return echoBatch(batch)
		}

		out, err := Run(queries, 10, time.Minute, slow)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, out.Elapsed, 50*time.Millisecond)
		assert.InDelta(t, float64(out.Processed)/out.Elapsed.Seconds(), out.Throughput, 1e-9)
	})

	t.Run("search error aborts the run", func(t *testing.T) {
		queries := testQueries(t, 10, 4)
		boom := errors.New("backend failure")

		_, err := Run(queries, 5, time.Minute, func(*dataset.Matrix) ([][]result.Neighbor, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
	})

	t.Run("row count mismatch is a shape error", func(t *testing.T) {
		queries := testQueries(t, 10, 4)

		_, err := Run(queries, 5, time.Minute, func(*dataset.Matrix) ([][]result.Neighbor, error) {
			return make([][]result.Neighbor, 3), nil
		})

		var shapeErr *algorithm.ErrShapeMismatch
		require.ErrorAs(t, err, &shapeErr)
	})

	t.Run("non-finite distance is reported not filtered", func(t *testing.T) {
		queries := testQueries(t, 5, 4)

		_, err := Run(queries, 5, time.Minute, func(batch *dataset.Matrix) ([][]result.Neighbor, error) {
			rows := make([][]result.Neighbor, batch.Rows())
			for i := range rows {
				rows[i] = []result.Neighbor{{Index: 0, Distance: float32(math.NaN())}}
			}
			return rows, nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query 0")
	})

	t.Run("invalid batch size", func(t *testing.T) {
		queries := testQueries(t, 5, 4)

		_, err := Run(queries, 0, time.Minute, echoBatch)
		require.Error(t, err)
	})

	t.Run("invalid budget", func(t *testing.T) {
		queries := testQueries(t, 5, 4)

		_, err := Run(queries, 10, 0, echoBatch)
		require.Error(t, err)
	})
}

func TestKNNAdapter(t *testing.T) {
	train := testQueries(t, 50, 8)

	alg := flatscan.New()
	_, err := alg.Build(context.Background(), train, distance.Euclidean)
	require.NoError(t, err)

	queries := train.Slice(0, 10)

	out, err := Run(queries, 4, time.Minute, KNN(alg, 3))
	require.NoError(t, err)

	require.Len(t, out.Results, 10)
	for qi, row := range out.Results {
		require.Len(t, row, 3)
		// Each query is a training row, so its nearest neighbor is itself.
		assert.Equal(t, qi, row[0].Index)
		assert.Equal(t, float32(0), row[0].Distance)
	}
}

func TestRangeAdapter(t *testing.T) {
	train := testQueries(t, 50, 8)

	alg := flatscan.New()
	_, err := alg.Build(context.Background(), train, distance.Euclidean)
	require.NoError(t, err)

	queries := train.Slice(0, 5)

	out, err := Run(queries, 5, time.Minute, Range(alg, 0.5))
	require.NoError(t, err)

	require.Len(t, out.Results, 5)
	for qi, row := range out.Results {
		require.Len(t, row, 1)
		assert.Equal(t, qi, row[0].Index)
	}
}
