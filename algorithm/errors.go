package algorithm

import (
	"errors"
	"fmt"

	"github.com/hupe1980/annbench/distance"
)

// ErrNotBuilt is returned when a search is attempted before Build.
var ErrNotBuilt = errors.New("algorithm: index not built")

// ErrUnsupportedMetric indicates a backend cannot serve the requested metric.
type ErrUnsupportedMetric struct {
	Algorithm string
	Metric    distance.Metric
}

func (e *ErrUnsupportedMetric) Error() string {
	return fmt.Sprintf("algorithm %s: unsupported metric %s", e.Algorithm, e.Metric)
}

// ErrCapabilityMismatch indicates an operation was invoked on a backend that
// does not advertise the capability. This is a harness/backend integration
// bug: the caller must check the capability flags first.
type ErrCapabilityMismatch struct {
	Algorithm string
	Op        string
}

func (e *ErrCapabilityMismatch) Error() string {
	return fmt.Sprintf("algorithm %s: %s not supported", e.Algorithm, e.Op)
}

// ErrShapeMismatch indicates a batch result with the wrong shape.
// Result shape is an invariant, so violations fail fast.
type ErrShapeMismatch struct {
	WantRows int
	WantCols int
	GotLen   int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("algorithm: result shape mismatch: want %d x %d, got %d values", e.WantRows, e.WantCols, e.GotLen)
}
