package algorithm

import "fmt"

// KNNResult is a fixed-width batch result: exactly k (id, distance) pairs
// per query, stored row-major.
type KNNResult struct {
	NumQueries int
	K          int
	Distances  []float32
	IDs        []uint32
}

// NewKNNResult validates the shape and wraps the raw arrays.
func NewKNNResult(numQueries, k int, distances []float32, ids []uint32) (*KNNResult, error) {
	want := numQueries * k
	if len(distances) != want {
		return nil, &ErrShapeMismatch{WantRows: numQueries, WantCols: k, GotLen: len(distances)}
	}
	if len(ids) != want {
		return nil, &ErrShapeMismatch{WantRows: numQueries, WantCols: k, GotLen: len(ids)}
	}
	return &KNNResult{NumQueries: numQueries, K: k, Distances: distances, IDs: ids}, nil
}

// Row returns the distances and ids for query i.
func (r *KNNResult) Row(i int) ([]float32, []uint32) {
	lo, hi := i*r.K, (i+1)*r.K
	return r.Distances[lo:hi], r.IDs[lo:hi]
}

// RangeResult is a variable-width batch result packed with an offsets array
// of length NumQueries()+1: query i owns the half-open range
// [Offsets[i], Offsets[i+1]) of Distances and IDs.
type RangeResult struct {
	Offsets   []int
	Distances []float32
	IDs       []uint32
}

// NewRangeResult validates offsets monotonicity and array lengths.
func NewRangeResult(offsets []int, distances []float32, ids []uint32) (*RangeResult, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("algorithm: empty offsets array")
	}
	if offsets[0] != 0 {
		return nil, fmt.Errorf("algorithm: offsets must start at 0, got %d", offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("algorithm: offsets not monotonic at %d", i)
		}
	}
	total := offsets[len(offsets)-1]
	if len(distances) != total || len(ids) != total {
		return nil, &ErrShapeMismatch{WantRows: len(offsets) - 1, WantCols: total, GotLen: len(distances)}
	}
	return &RangeResult{Offsets: offsets, Distances: distances, IDs: ids}, nil
}

// NumQueries returns the number of queries covered by the result.
func (r *RangeResult) NumQueries() int { return len(r.Offsets) - 1 }

// Row returns the distances and ids for query i.
func (r *RangeResult) Row(i int) ([]float32, []uint32) {
	lo, hi := r.Offsets[i], r.Offsets[i+1]
	return r.Distances[lo:hi], r.IDs[lo:hi]
}
