package dataset

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	t.Run("FromRows", func(t *testing.T) {
		m, err := FromRows([][]float32{{1, 2}, {3, 4}, {5, 6}})
		require.NoError(t, err)
		assert.Equal(t, 3, m.Rows())
		assert.Equal(t, 2, m.Dim())
		assert.Equal(t, []float32{3, 4}, m.Row(1))
	})

	t.Run("RaggedRows", func(t *testing.T) {
		_, err := FromRows([][]float32{{1, 2}, {3}})
		assert.Error(t, err)
	})

	t.Run("FromData", func(t *testing.T) {
		m, err := FromData([]float32{1, 2, 3, 4}, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, m.Rows())

		_, err = FromData([]float32{1, 2, 3}, 2)
		assert.Error(t, err)
	})

	t.Run("Slice", func(t *testing.T) {
		m, err := FromRows([][]float32{{1}, {2}, {3}, {4}})
		require.NoError(t, err)

		s := m.Slice(1, 3)
		assert.Equal(t, 2, s.Rows())
		assert.Equal(t, []float32{2}, s.Row(0))

		// Views share storage with the parent.
		s.Row(0)[0] = 42
		assert.Equal(t, float32(42), m.Row(1)[0])
	})

	t.Run("NormalizeL2", func(t *testing.T) {
		m, err := FromRows([][]float32{{3, 4}, {0, 0}})
		require.NoError(t, err)

		skipped := m.NormalizeL2()
		assert.Equal(t, 1, skipped)
		assert.InDelta(t, 1.0, float64(norm(m.Row(0))), 1e-6)
	})

	t.Run("Clone", func(t *testing.T) {
		m, err := FromRows([][]float32{{1, 2}})
		require.NoError(t, err)

		c := m.Clone()
		c.Row(0)[0] = 9
		assert.Equal(t, float32(1), m.Row(0)[0])
	})
}

func TestBinaryRoundTrip(t *testing.T) {
	m, err := FromRows([][]float32{{1.5, -2.5, 3}, {0, 4, -5}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "train.annb")
	require.NoError(t, Save(path, m))

	got, err := Open(path)
	require.NoError(t, err)
	defer got.Close()

	assert.Equal(t, m.Rows(), got.Rows())
	assert.Equal(t, m.Dim(), got.Dim())
	assert.Equal(t, m.Data(), got.Data())
}

func TestOpenRejectsCorrupt(t *testing.T) {
	m, err := FromRows([][]float32{{1, 2}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "train.annb")
	require.NoError(t, Save(path, m))

	t.Run("MmapIsReadOnlyView", func(t *testing.T) {
		got, err := Open(path)
		require.NoError(t, err)
		defer got.Close()

		assert.Panics(t, func() { got.NormalizeL2() })
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing.annb"))
		assert.Error(t, err)
	})
}

func TestJSONRoundTrip(t *testing.T) {
	m, err := FromRows([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)

	for _, name := range []string{"q.json", "q.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveJSON(path, m))

			got, err := OpenJSON(path)
			require.NoError(t, err)
			assert.Equal(t, m.Data(), got.Data())
		})
	}
}

func TestScale(t *testing.T) {
	base, err := FromRows([][]float32{{1, 1}, {2, 2}})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))

	t.Run("FactorOne", func(t *testing.T) {
		out, err := Scale(base, 1, 0.1, rng)
		require.NoError(t, err)
		assert.Equal(t, base.Data(), out.Data())
	})

	t.Run("FactorFour", func(t *testing.T) {
		out, err := Scale(base, 4, 0.1, rng)
		require.NoError(t, err)
		require.Equal(t, 8, out.Rows())

		// First block is the base, untouched.
		assert.Equal(t, base.Data(), out.Data()[:4])

		// Perturbed copies stay within the relative error bound.
		for i := 2; i < out.Rows(); i++ {
			orig := base.Row(i % 2)
			for j, v := range out.Row(i) {
				assert.InDelta(t, float64(orig[j]), float64(v), float64(orig[j])*0.1+1e-6)
			}
		}
	})

	t.Run("InvalidFactor", func(t *testing.T) {
		_, err := Scale(base, 0, 0.1, rng)
		assert.Error(t, err)
	})
}

func norm(v []float32) float32 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return float32(math.Sqrt(s))
}
