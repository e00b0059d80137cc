// Package flatscan implements the exact brute-force backend. It is the
// oracle: its results define the ground truth every approximate backend
// is scored against.
package flatscan

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/internal/queue"
)

// Kind is the registry identifier for this backend.
const Kind = algorithm.Kind("flat-scan")

func init() {
	algorithm.Register(Kind, func() algorithm.Algorithm { return New() })
}

// Compile-time check.
var _ algorithm.Algorithm = (*FlatScan)(nil)

// FlatScan scans every indexed vector for every query. Exact by
// construction, no hyperparameters, supports both kNN and range search.
type FlatScan struct {
	metric   distance.Metric
	distFunc distance.Func
	vectors  *dataset.Matrix
}

// New creates an unbuilt flat scan backend.
func New() *FlatScan {
	return &FlatScan{}
}

// Name implements algorithm.Algorithm.
func (f *FlatScan) Name() string { return string(Kind) }

// SupportsRangeSearch implements algorithm.Algorithm.
func (f *FlatScan) SupportsRangeSearch() bool { return true }

// RequiresTuning implements algorithm.Algorithm.
func (f *FlatScan) RequiresTuning() bool { return false }

// TunedParams implements algorithm.Algorithm.
func (f *FlatScan) TunedParams() algorithm.Params { return algorithm.Params{} }

// SetParams implements algorithm.Algorithm. The flat scan has no
// hyperparameters, so only an empty set is accepted.
func (f *FlatScan) SetParams(p algorithm.Params) error {
	if len(p) > 0 {
		return fmt.Errorf("flatscan: no tunable parameters, got %v", p)
	}
	return nil
}

// Grid implements algorithm.Algorithm.
func (f *FlatScan) Grid() []algorithm.Params { return nil }

// Build implements algorithm.Algorithm.
func (f *FlatScan) Build(ctx context.Context, train *dataset.Matrix, metric distance.Metric) (algorithm.BuildInfo, error) {
	if err := ctx.Err(); err != nil {
		return algorithm.BuildInfo{}, err
	}

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return algorithm.BuildInfo{}, &algorithm.ErrUnsupportedMetric{Algorithm: f.Name(), Metric: metric}
	}

	start := time.Now()
	vectors := train
	if metric.NeedsNormalization() {
		vectors = train.Clone()
		vectors.NormalizeL2()
	}

	f.metric = metric
	f.distFunc = distFunc
	f.vectors = vectors

	return algorithm.BuildInfo{
		Cardinality:    train.Rows(),
		Dimensionality: train.Dim(),
		BuildTime:      time.Since(start),
	}, nil
}

// BatchKNNSearch implements algorithm.Algorithm.
func (f *FlatScan) BatchKNNSearch(queries *dataset.Matrix, k int) (*algorithm.KNNResult, error) {
	if f.vectors == nil {
		return nil, algorithm.ErrNotBuilt
	}
	if k <= 0 || k > f.vectors.Rows() {
		return nil, fmt.Errorf("flatscan: k must be in [1, %d], got %d", f.vectors.Rows(), k)
	}

	n := queries.Rows()
	distances := make([]float32, 0, n*k)
	ids := make([]uint32, 0, n*k)

	for qi := 0; qi < n; qi++ {
		q := f.query(queries.Row(qi))

		h := queue.NewMax(k)
		for i := 0; i < f.vectors.Rows(); i++ {
			h.PushBounded(queue.Item{ID: uint32(i), Distance: f.distFunc(q, f.vectors.Row(i))}, k)
		}
		for _, item := range h.Drain() {
			distances = append(distances, item.Distance)
			ids = append(ids, item.ID)
		}
	}

	return algorithm.NewKNNResult(n, k, distances, ids)
}

// BatchRangeSearch implements algorithm.Algorithm.
func (f *FlatScan) BatchRangeSearch(queries *dataset.Matrix, radius float32) (*algorithm.RangeResult, error) {
	if f.vectors == nil {
		return nil, algorithm.ErrNotBuilt
	}
	if radius < 0 {
		return nil, fmt.Errorf("flatscan: radius must be >= 0, got %g", radius)
	}

	n := queries.Rows()
	offsets := make([]int, 1, n+1)
	var distances []float32
	var ids []uint32

	for qi := 0; qi < n; qi++ {
		q := f.query(queries.Row(qi))

		h := queue.NewMin(16)
		for i := 0; i < f.vectors.Rows(); i++ {
			if d := f.distFunc(q, f.vectors.Row(i)); d <= radius {
				h.Push(queue.Item{ID: uint32(i), Distance: d})
			}
		}
		for _, item := range h.Drain() {
			distances = append(distances, item.Distance)
			ids = append(ids, item.ID)
		}
		offsets = append(offsets, len(ids))
	}

	return algorithm.NewRangeResult(offsets, distances, ids)
}

// query prepares a single query vector for the active metric.
func (f *FlatScan) query(q []float32) []float32 {
	if f.metric.NeedsNormalization() {
		if n, ok := distance.NormalizeL2Copy(q); ok {
			return n
		}
	}
	return q
}
