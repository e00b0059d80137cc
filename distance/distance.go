package distance

import (
	"fmt"
	"math"
	"slices"

	"github.com/viterin/vek/vek32"
)

// Metric represents the distance metric used for a benchmark run.
// It is selected once per run and never changes mid-run.
type Metric int

const (
	// Euclidean is the L2 distance.
	Euclidean Metric = iota
	// Cosine is the cosine distance (1 - cosine similarity) over
	// L2-normalized vectors.
	Cosine
)

// String returns the canonical lowercase name of the metric.
// The same name is persisted in report and ground-truth keys.
func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Cosine:
		return "cosine"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	switch m {
	case Euclidean, Cosine:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("distance: cannot marshal unknown metric %d", int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Parse converts a metric name to a Metric.
func Parse(s string) (Metric, error) {
	switch s {
	case "euclidean", "l2":
		return Euclidean, nil
	case "cosine", "angular":
		return Cosine, nil
	default:
		return 0, fmt.Errorf("distance: unknown metric %q", s)
	}
}

// NeedsNormalization reports whether vectors must be L2-normalized before
// indexing and querying under this metric.
func (m Metric) NeedsNormalization() bool {
	return m == Cosine
}

// Func is a function type for distance calculation between two vectors
// of the same length.
type Func func(a, b []float32) float32

// L2 calculates the Euclidean distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func L2(a, b []float32) float32 {
	return vek32.Distance(a, b)
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return vek32.Dot(a, b)
}

// CosineDistance calculates 1 - dot(a, b). Both vectors must already be
// L2-normalized, which makes this equal to the true cosine distance.
func CosineDistance(a, b []float32) float32 {
	return 1 - vek32.Dot(a, b)
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case Euclidean:
		return L2, nil
	case Cosine:
		return CosineDistance, nil
	default:
		return nil, fmt.Errorf("distance: unsupported metric: %v", m)
	}
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := vek32.Dot(v, v)
	if norm2 == 0 {
		return false
	}
	vek32.MulNumber_Inplace(v, 1/float32(math.Sqrt(float64(norm2))))
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}
