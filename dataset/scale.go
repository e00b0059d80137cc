package dataset

import (
	"fmt"
	"math/rand"
)

// Scale produces a synthetic variant of base with factor times its
// cardinality. The first block is the base data unchanged; each further
// block is the base perturbed per coordinate by a uniform relative error
// in [-errorRate, errorRate]. factor 1 returns a plain copy.
//
// The scale factor travels with the result as an explicit value in the
// benchmark unit and report; it is never encoded into file names that
// later have to be parsed back apart.
func Scale(base *Matrix, factor int, errorRate float32, rng *rand.Rand) (*Matrix, error) {
	if factor < 1 {
		return nil, fmt.Errorf("dataset: scale factor must be >= 1, got %d", factor)
	}
	if errorRate < 0 {
		return nil, fmt.Errorf("dataset: error rate must be >= 0, got %g", errorRate)
	}

	out, err := New(base.rows*factor, base.dim)
	if err != nil {
		return nil, err
	}

	copy(out.data, base.data)

	for block := 1; block < factor; block++ {
		dst := out.data[block*len(base.data) : (block+1)*len(base.data)]
		for i, v := range base.data {
			eps := (rng.Float32()*2 - 1) * errorRate
			dst[i] = v * (1 + eps)
		}
	}
	return out, nil
}
