package algorithm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKNNResult(t *testing.T) {
	t.Run("ValidShape", func(t *testing.T) {
		r, err := NewKNNResult(2, 3, make([]float32, 6), make([]uint32, 6))
		require.NoError(t, err)

		dists, ids := r.Row(1)
		assert.Len(t, dists, 3)
		assert.Len(t, ids, 3)
	})

	t.Run("ShapeMismatchIsHardError", func(t *testing.T) {
		_, err := NewKNNResult(2, 3, make([]float32, 5), make([]uint32, 6))
		require.Error(t, err)
		assert.IsType(t, &ErrShapeMismatch{}, err)

		_, err = NewKNNResult(2, 3, make([]float32, 6), make([]uint32, 7))
		assert.IsType(t, &ErrShapeMismatch{}, err)
	})
}

func TestRangeResult(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		r, err := NewRangeResult([]int{0, 2, 2, 5}, make([]float32, 5), make([]uint32, 5))
		require.NoError(t, err)
		assert.Equal(t, 3, r.NumQueries())

		dists, _ := r.Row(0)
		assert.Len(t, dists, 2)

		dists, _ = r.Row(1)
		assert.Empty(t, dists)

		dists, _ = r.Row(2)
		assert.Len(t, dists, 3)
	})

	t.Run("NonMonotonicOffsets", func(t *testing.T) {
		_, err := NewRangeResult([]int{0, 3, 2}, make([]float32, 2), make([]uint32, 2))
		assert.Error(t, err)
	})

	t.Run("BadStart", func(t *testing.T) {
		_, err := NewRangeResult([]int{1, 2}, make([]float32, 1), make([]uint32, 1))
		assert.Error(t, err)
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := NewRangeResult([]int{0, 2}, make([]float32, 1), make([]uint32, 2))
		require.Error(t, err)
		assert.IsType(t, &ErrShapeMismatch{}, err)
	})
}

func TestRegistry(t *testing.T) {
	Register("test-noop", func() Algorithm { return nil })

	_, err := New("test-noop")
	require.NoError(t, err)

	_, err = New("no-such-kind")
	assert.Error(t, err)

	assert.Contains(t, Kinds(), Kind("test-noop"))
}
