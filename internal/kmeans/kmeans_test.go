package kmeans

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/distance"
)

func TestTrain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("TwoClusters", func(t *testing.T) {
		// Two well-separated blobs around (0,0) and (10,10).
		var vectors []float32
		for i := 0; i < 50; i++ {
			vectors = append(vectors, rng.Float32(), rng.Float32())
		}
		for i := 0; i < 50; i++ {
			vectors = append(vectors, 10+rng.Float32(), 10+rng.Float32())
		}

		centroids, assignments := Train(vectors, 2, 2, distance.L2, 20, rng)
		require.Len(t, centroids, 4)
		require.Len(t, assignments, 100)

		// All points in the same blob share an assignment, and the blobs differ.
		first := assignments[0]
		for _, a := range assignments[:50] {
			assert.Equal(t, first, a)
		}
		for _, a := range assignments[50:] {
			assert.NotEqual(t, first, a)
		}
	})

	t.Run("FewerVectorsThanK", func(t *testing.T) {
		centroids, assignments := Train([]float32{1, 2, 3, 4}, 2, 10, distance.L2, 5, rng)
		assert.Len(t, centroids, 4) // k reduced to 2
		assert.Len(t, assignments, 2)
	})

	t.Run("Empty", func(t *testing.T) {
		centroids, assignments := Train(nil, 2, 4, distance.L2, 5, rng)
		assert.Nil(t, centroids)
		assert.Nil(t, assignments)
	})
}
