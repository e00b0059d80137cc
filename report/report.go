// Package report defines the run-report record produced for every measured
// (algorithm, dataset, scale, metric, k-or-radius) combination and its
// persistence over a blob store.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/annbench/blobstore"
	"github.com/hupe1980/annbench/distance"
)

// Report is the result of one timed measurement. Exactly one of K and
// Radius is set: K > 0 marks a kNN report, otherwise Radius is used.
// Scale is carried as an explicit field and never re-parsed from names.
type Report struct {
	Algorithm      string          `json:"algorithm"`
	Dataset        string          `json:"dataset"`
	Scale          int             `json:"scale"`
	Metric         distance.Metric `json:"metric"`
	Cardinality    int             `json:"cardinality"`
	Dimensionality int             `json:"dimensionality"`

	// TuningTime and IndexBuildTime are in seconds.
	TuningTime     float64        `json:"tuning_time"`
	TunedParams    map[string]any `json:"tuned_params"`
	IndexBuildTime float64        `json:"index_build_time"`

	NumQueries int     `json:"num_queries"`
	K          int     `json:"k,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	Throughput float64 `json:"throughput"`
	Recall     float64 `json:"recall"`

	// Partial marks a run whose search budget ran out before the full
	// query set was processed.
	Partial bool `json:"partial,omitempty"`
}

// Name returns the document name that identifies this report's key.
// Reruns of the same key overwrite each other; latest wins.
func (r *Report) Name() string {
	base := fmt.Sprintf("%s-%s-%d-%s", r.Algorithm, r.Dataset, r.Scale, r.Metric)
	if r.K > 0 {
		return fmt.Sprintf("results-knn-%s-%d.json", base, r.K)
	}
	radius := strconv.FormatFloat(r.Radius, 'g', -1, 64)
	return fmt.Sprintf("results-rnn-%s-%s.json", base, radius)
}

// Store persists reports over a blob store, one JSON document per key.
type Store struct {
	blobs blobstore.Store
}

// NewStore creates a report store backed by blobs.
func NewStore(blobs blobstore.Store) *Store {
	return &Store{blobs: blobs}
}

// Save writes the report under its key name, replacing any previous run.
func (s *Store) Save(ctx context.Context, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode %q: %w", r.Name(), err)
	}
	return s.blobs.Put(ctx, r.Name(), data)
}

// Load reads one report by document name.
func (s *Store) Load(ctx context.Context, name string) (*Report, error) {
	data, err := s.blobs.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: decode %q: %w", name, err)
	}
	return &r, nil
}

// ListKNN loads all kNN reports in the store.
func (s *Store) ListKNN(ctx context.Context) ([]*Report, error) {
	return s.list(ctx, "results-knn-")
}

// ListRange loads all range-search reports in the store.
func (s *Store) ListRange(ctx context.Context) ([]*Report, error) {
	return s.list(ctx, "results-rnn-")
}

func (s *Store) list(ctx context.Context, prefix string) ([]*Report, error) {
	names, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		r, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
