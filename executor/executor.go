// Package executor implements the timed batch execution model: a query set
// is run in fixed-size batches until a wall-clock budget is exhausted, with
// only the search calls themselves charged against the budget.
package executor

import (
	"fmt"
	"time"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/result"
)

// DefaultBatchSize is the number of queries issued per search call.
const DefaultBatchSize = 100

// BatchFunc runs one batch of queries and returns per-query neighbors.
type BatchFunc func(batch *dataset.Matrix) ([][]result.Neighbor, error)

// Outcome is the measurement of one timed run.
type Outcome struct {
	// Results holds the per-query neighbors for the batches that actually
	// executed. When Partial is true this covers only a prefix of the
	// query set.
	Results [][]result.Neighbor

	// Processed is the number of queries actually searched.
	Processed int

	// Elapsed is the accumulated time spent inside search calls. Result
	// post-processing is excluded.
	Elapsed time.Duration

	// Throughput is Processed queries per second of Elapsed.
	Throughput float64

	// Partial reports that the budget ran out before the full query set
	// was processed. Callers must not hide this condition.
	Partial bool
}

// Run executes search over queries in batches of batchSize until either the
// query set is exhausted or the accumulated search time exceeds budget.
// The in-flight batch always finishes; no new batch starts once the budget
// is exceeded.
func Run(queries *dataset.Matrix, batchSize int, budget time.Duration, search BatchFunc) (*Outcome, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("executor: batch size must be > 0, got %d", batchSize)
	}
	if budget <= 0 {
		return nil, fmt.Errorf("executor: budget must be > 0, got %s", budget)
	}

	n := queries.Rows()
	out := &Outcome{}

	for i := 0; i < n; i += batchSize {
		if out.Elapsed > budget {
			break
		}

		hi := min(i+batchSize, n)
		batch := queries.Slice(i, hi)

		start := time.Now()
		rows, err := search(batch)
		out.Elapsed += time.Since(start)

		if err != nil {
			return nil, err
		}
		if len(rows) != batch.Rows() {
			return nil, &algorithm.ErrShapeMismatch{WantRows: batch.Rows(), WantCols: 1, GotLen: len(rows)}
		}

		for ri, row := range rows {
			for _, nb := range row {
				if err := nb.Validate(); err != nil {
					return nil, fmt.Errorf("executor: query %d: %w", i+ri, err)
				}
			}
		}

		out.Results = append(out.Results, rows...)
		out.Processed += batch.Rows()
	}

	out.Partial = out.Processed < n
	if out.Elapsed > 0 {
		out.Throughput = float64(out.Processed) / out.Elapsed.Seconds()
	}
	return out, nil
}

// KNN adapts a backend's fixed-width kNN search to a BatchFunc.
func KNN(alg algorithm.Algorithm, k int) BatchFunc {
	return func(batch *dataset.Matrix) ([][]result.Neighbor, error) {
		res, err := alg.BatchKNNSearch(batch, k)
		if err != nil {
			return nil, err
		}

		rows := make([][]result.Neighbor, res.NumQueries)
		for qi := 0; qi < res.NumQueries; qi++ {
			dists, ids := res.Row(qi)
			row := make([]result.Neighbor, len(ids))
			for i := range ids {
				row[i] = result.Neighbor{Index: int(ids[i]), Distance: dists[i]}
			}
			rows[qi] = row
		}
		return rows, nil
	}
}

// Range adapts a backend's variable-width range search to a BatchFunc.
// Callers must verify the backend's range capability first; the adapter
// passes the call through unconditionally.
func Range(alg algorithm.Algorithm, radius float32) BatchFunc {
	return func(batch *dataset.Matrix) ([][]result.Neighbor, error) {
		res, err := alg.BatchRangeSearch(batch, radius)
		if err != nil {
			return nil, err
		}

		rows := make([][]result.Neighbor, res.NumQueries())
		for qi := range rows {
			dists, ids := res.Row(qi)
			row := make([]result.Neighbor, len(ids))
			for i := range ids {
				row[i] = result.Neighbor{Index: int(ids[i]), Distance: dists[i]}
			}
			rows[qi] = row
		}
		return rows, nil
	}
}
