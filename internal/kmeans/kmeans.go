// Package kmeans implements Lloyd's algorithm for training partition
// centroids in the partitioned (IVF-style) backend.
package kmeans

import (
	"math"
	"math/rand"

	"github.com/hupe1980/annbench/distance"
)

// Train learns k centroids from the row-major vectors using Lloyd's
// algorithm and returns the flattened centroids (k * dim) together with
// the final per-vector assignments.
//
// When there are fewer vectors than k, every vector becomes its own
// centroid and k is effectively reduced.
func Train(vectors []float32, dim, k int, distFunc distance.Func, maxIter int, rng *rand.Rand) ([]float32, []int) {
	n := len(vectors) / dim
	if n < k {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	centroids := make([]float32, k*dim)

	// Initialize centroids from random distinct data points.
	perm := rng.Perm(n)
	for i := 0; i < k; i++ {
		copy(centroids[i*dim:(i+1)*dim], vectors[perm[i]*dim:(perm[i]+1)*dim])
	}

	assignments := make([]int, n)
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		changed := false

		// Assignment step
		for i := 0; i < n; i++ {
			vec := vectors[i*dim : (i+1)*dim]
			best := 0
			minDist := float32(math.MaxFloat32)

			for j := 0; j < k; j++ {
				if d := distFunc(vec, centroids[j*dim:(j+1)*dim]); d < minDist {
					minDist = d
					best = j
				}
			}

			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed && iter > 0 {
			break
		}

		// Update step
		clear(sums)
		clear(counts)
		for i := 0; i < n; i++ {
			c := assignments[i]
			vec := vectors[i*dim : (i+1)*dim]
			for d := 0; d < dim; d++ {
				sums[c*dim+d] += vec[d]
			}
			counts[c]++
		}
		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				scale := 1 / float32(counts[j])
				for d := 0; d < dim; d++ {
					centroids[j*dim+d] = sums[j*dim+d] * scale
				}
			}
		}
	}

	return centroids, assignments
}
