package dataset

import (
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/annbench/distance"
)

// Matrix is a dense row-major collection of float32 vectors.
// It is immutable once handed to an algorithm; NormalizeL2 is applied
// before indexing, never after.
type Matrix struct {
	data   []float32
	rows   int
	dim    int
	closer io.Closer // non-nil for mmap-backed matrices
}

// New creates a zeroed matrix with the given shape.
func New(rows, dim int) (*Matrix, error) {
	if rows < 0 || dim <= 0 {
		return nil, fmt.Errorf("dataset: invalid shape (%d, %d)", rows, dim)
	}
	return &Matrix{
		data: make([]float32, rows*dim),
		rows: rows,
		dim:  dim,
	}, nil
}

// FromData wraps an existing row-major slice without copying.
// len(data) must be a multiple of dim.
func FromData(data []float32, dim int) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dataset: invalid dimension %d", dim)
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("dataset: data length %d is not a multiple of dimension %d", len(data), dim)
	}
	return &Matrix{data: data, rows: len(data) / dim, dim: dim}, nil
}

// FromRows copies a slice of equal-length vectors into a matrix.
func FromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset: no rows")
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("dataset: zero-dimensional rows")
	}

	m, err := New(len(rows), dim)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("dataset: row %d has dimension %d, want %d", i, len(row), dim)
		}
		copy(m.Row(i), row)
	}
	return m, nil
}

// Rows returns the number of vectors.
func (m *Matrix) Rows() int { return m.rows }

// Dim returns the vector dimensionality.
func (m *Matrix) Dim() int { return m.dim }

// Row returns the i-th vector. The slice aliases the matrix storage.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.dim : (i+1)*m.dim]
}

// Data returns the underlying row-major storage.
func (m *Matrix) Data() []float32 { return m.data }

// Slice returns a view of rows [lo, hi). The view shares storage with m.
func (m *Matrix) Slice(lo, hi int) *Matrix {
	if lo < 0 || hi > m.rows || lo > hi {
		panic(fmt.Sprintf("dataset: slice [%d, %d) out of range for %d rows", lo, hi, m.rows))
	}
	return &Matrix{
		data: m.data[lo*m.dim : hi*m.dim],
		rows: hi - lo,
		dim:  m.dim,
	}
}

// Clone returns a deep copy with private heap storage.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		data: slices.Clone(m.data),
		rows: m.rows,
		dim:  m.dim,
	}
}

// NormalizeL2 normalizes every row in place and returns the number of
// zero-norm rows left untouched. Required before indexing under cosine.
// Panics when the matrix is mmap-backed; callers must Clone first.
func (m *Matrix) NormalizeL2() int {
	if m.closer != nil {
		panic("dataset: cannot normalize an mmap-backed matrix in place")
	}
	skipped := 0
	for i := 0; i < m.rows; i++ {
		if !distance.NormalizeL2InPlace(m.Row(i)) {
			skipped++
		}
	}
	return skipped
}

// Close releases the mmap backing, if any. Safe on heap-backed matrices.
func (m *Matrix) Close() error {
	if m.closer == nil {
		return nil
	}
	c := m.closer
	m.closer = nil
	m.data = nil
	return c.Close()
}
