// Package groundtruth persists exact per-query neighbor lists so that
// approximate backends can be scored without re-running the oracle.
//
// One JSON document per key: an ordered list of per-query [index, distance]
// pairs, produced by the exact flat-scan backend. Documents are optionally
// gzip-compressed.
package groundtruth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/annbench/blobstore"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/result"
)

// ErrMissingGroundTruth reports that no ground truth exists for a key.
// A missing key is fatal for the measurement it backs; it must never be
// treated as an empty result set.
type ErrMissingGroundTruth struct {
	Key string
}

func (e *ErrMissingGroundTruth) Error() string {
	return fmt.Sprintf("groundtruth: missing ground truth %q", e.Key)
}

func (e *ErrMissingGroundTruth) Unwrap() error { return blobstore.ErrNotFound }

// Key identifies the dataset variant a ground-truth document belongs to.
// The neighbor count or radius completes the document name.
type Key struct {
	Dataset string
	Scale   int
	Metric  distance.Metric
}

func (k Key) suffix() string {
	return fmt.Sprintf("%s-%d-%s", k.Dataset, k.Scale, k.Metric)
}

// KNNName returns the document name for the k-nearest ground truth.
func (k Key) KNNName(kn int) string {
	return fmt.Sprintf("ground-truth-knn-%d-%s.json", kn, k.suffix())
}

// RangeName returns the document name for the radius ground truth.
func (k Key) RangeName(radius float32) string {
	r := strconv.FormatFloat(float64(radius), 'g', -1, 32)
	return fmt.Sprintf("ground-truth-rnn-%s-%s.json", r, k.suffix())
}

// Option configures a Store.
type Option func(*Store)

// WithCompression gzip-compresses documents and appends ".gz" to names.
func WithCompression() Option {
	return func(s *Store) {
		s.compress = true
	}
}

// Store reads and writes ground-truth documents over a blob store.
type Store struct {
	blobs    blobstore.Store
	compress bool
}

// NewStore creates a ground-truth store backed by blobs.
func NewStore(blobs blobstore.Store, optFns ...Option) *Store {
	s := &Store{blobs: blobs}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

func (s *Store) name(base string) string {
	if s.compress {
		return base + ".gz"
	}
	return base
}

// SaveKNN writes the k-nearest ground truth for key.
func (s *Store) SaveKNN(ctx context.Context, key Key, k int, rows [][]result.Neighbor) error {
	return s.save(ctx, s.name(key.KNNName(k)), rows)
}

// LoadKNN reads the k-nearest ground truth for key.
func (s *Store) LoadKNN(ctx context.Context, key Key, k int) ([][]result.Neighbor, error) {
	return s.load(ctx, s.name(key.KNNName(k)))
}

// SaveRange writes the radius ground truth for key.
func (s *Store) SaveRange(ctx context.Context, key Key, radius float32, rows [][]result.Neighbor) error {
	return s.save(ctx, s.name(key.RangeName(radius)), rows)
}

// LoadRange reads the radius ground truth for key.
func (s *Store) LoadRange(ctx context.Context, key Key, radius float32) ([][]result.Neighbor, error) {
	return s.load(ctx, s.name(key.RangeName(radius)))
}

func (s *Store) save(ctx context.Context, name string, rows [][]result.Neighbor) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("groundtruth: encode %q: %w", name, err)
	}

	if s.compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	return s.blobs.Put(ctx, name, data)
}

func (s *Store) load(ctx context.Context, name string) ([][]result.Neighbor, error) {
	data, err := s.blobs.Get(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &ErrMissingGroundTruth{Key: name}
		}
		return nil, err
	}

	if s.compress {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("groundtruth: decompress %q: %w", name, err)
		}
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		if err := zr.Close(); err != nil {
			return nil, err
		}
	}

	var rows [][]result.Neighbor
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("groundtruth: decode %q: %w", name, err)
	}
	return rows, nil
}
