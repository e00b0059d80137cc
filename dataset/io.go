package dataset

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unsafe"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/annbench/internal/mmap"
)

// Binary layout: 4-byte magic, uint32 version, uint32 rows, uint32 dim,
// then rows*dim little-endian float32 values.
const (
	binaryMagic   = "annb"
	binaryVersion = 1
	headerSize    = 16
)

// Save writes the matrix to path in the raw binary format.
func Save(path string, m *Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriterSize(f, 1<<20)

	header := make([]byte, headerSize)
	copy(header, binaryMagic)
	binary.LittleEndian.PutUint32(header[4:], binaryVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(m.rows))
	binary.LittleEndian.PutUint32(header[12:], uint32(m.dim))
	if _, err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	buf := make([]byte, 4)
	for _, v := range m.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := w.Write(buf); err != nil {
			f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Open memory-maps the binary file at path.
// The returned matrix shares the page cache with other processes and must
// not be mutated; Close releases the mapping.
func Open(path string) (*Matrix, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	m, err := fromMapped(f.Data)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	m.closer = f
	return m, nil
}

func fromMapped(b []byte) (*Matrix, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("truncated header (%d bytes)", len(b))
	}
	if string(b[:4]) != binaryMagic {
		return nil, fmt.Errorf("bad magic %q", b[:4])
	}
	if v := binary.LittleEndian.Uint32(b[4:]); v != binaryVersion {
		return nil, fmt.Errorf("unsupported version %d", v)
	}

	rows := int(binary.LittleEndian.Uint32(b[8:]))
	dim := int(binary.LittleEndian.Uint32(b[12:]))
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}

	want := headerSize + rows*dim*4
	if len(b) != want {
		return nil, fmt.Errorf("size mismatch: have %d bytes, want %d", len(b), want)
	}

	var data []float32
	if rows > 0 {
		data = unsafe.Slice((*float32)(unsafe.Pointer(&b[headerSize])), rows*dim)
	}
	return &Matrix{data: data, rows: rows, dim: dim}, nil
}

// SaveJSON writes the matrix as a JSON array of rows. A ".gz" suffix
// enables gzip compression.
func SaveJSON(path string, m *Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	rows := make([][]float32, m.rows)
	for i := range rows {
		rows[i] = m.Row(i)
	}

	if err := json.NewEncoder(w).Encode(rows); err != nil {
		f.Close()
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// OpenJSON reads a matrix written by SaveJSON.
func OpenJSON(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	var rows [][]float32
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return FromRows(rows)
}
