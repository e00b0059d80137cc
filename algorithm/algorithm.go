package algorithm

import (
	"context"
	"maps"
	"time"

	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
)

// Params is a set of named hyperparameters for a backend.
type Params map[string]any

// Clone returns a shallow copy of the params.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// BuildInfo describes a completed index build.
type BuildInfo struct {
	// Cardinality is the number of indexed vectors.
	Cardinality int

	// Dimensionality is the vector dimension.
	Dimensionality int

	// BuildTime is the wall-clock time of the build itself, excluding any
	// rebuilds during tuning.
	BuildTime time.Duration
}

// Algorithm is the capability contract over a search backend.
//
// The harness never reaches past this interface: the backend owns its
// hyperparameters and index state, the harness owns measurement.
type Algorithm interface {
	// Name returns the backend identifier used in reports.
	Name() string

	// SupportsRangeSearch reports whether BatchRangeSearch may be called.
	// Calling it on a backend that reports false is a programming error,
	// not a recoverable condition.
	SupportsRangeSearch() bool

	// RequiresTuning reports whether the tuning controller should run
	// before the measured build.
	RequiresTuning() bool

	// TunedParams returns a snapshot of the current hyperparameters.
	TunedParams() Params

	// SetParams replaces hyperparameters. The next Build uses them.
	SetParams(p Params) error

	// Grid returns the ordered tuning candidates for this backend,
	// coarse/fast first. Empty for backends that do not tune.
	Grid() []Params

	// Build indexes the training vectors, replacing any previous index.
	// Cosine requires L2-normalized vectors; backends normalize a private
	// copy so callers keep their data intact.
	Build(ctx context.Context, train *dataset.Matrix, metric distance.Metric) (BuildInfo, error)

	// BatchKNNSearch returns the k nearest neighbors for every query.
	// The result is exactly (queries.Rows() x k); any other shape is a
	// hard error.
	BatchKNNSearch(queries *dataset.Matrix, k int) (*KNNResult, error)

	// BatchRangeSearch returns all neighbors within radius for every
	// query as a packed variable-width result.
	BatchRangeSearch(queries *dataset.Matrix, radius float32) (*RangeResult, error)
}
