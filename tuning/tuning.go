// Package tuning implements the recall-targeted grid-search controller: it
// walks a backend's ordered parameter grid and accepts the first candidate
// whose measured recall meets the target for every requested k and radius.
package tuning

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/executor"
	"github.com/hupe1980/annbench/recall"
	"github.com/hupe1980/annbench/result"
)

// DefaultMaxSearchTime bounds each timed evaluation during tuning.
const DefaultMaxSearchTime = 10 * time.Second

// ErrInvalidTargetRecall reports a target recall outside (0, 1].
type ErrInvalidTargetRecall struct {
	Value float64
}

func (e *ErrInvalidTargetRecall) Error() string {
	return fmt.Sprintf("tuning: target recall must be in (0, 1], got %g", e.Value)
}

// TruthSource provides ground-truth neighbor lists for the tuning queries.
type TruthSource interface {
	KNN(ctx context.Context, k int) ([][]result.Neighbor, error)
	Range(ctx context.Context, radius float32) ([][]result.Neighbor, error)
}

// Controller runs the grid search for one backend.
type Controller struct {
	// TargetRecall is the acceptance threshold, in (0, 1].
	TargetRecall float64

	// MaxSearchTime bounds each timed evaluation. Zero means
	// DefaultMaxSearchTime.
	MaxSearchTime time.Duration

	// BatchSize is the executor batch size. Zero means the executor default.
	BatchSize int

	// Ks are the neighbor counts every candidate must satisfy.
	Ks []int

	// Radii are the search radii every candidate must additionally satisfy
	// when the backend supports range search.
	Radii []float32

	// Logger receives per-candidate progress. Nil discards.
	Logger *slog.Logger
}

// Result is the outcome of a grid search. An exhausted grid is a valid
// outcome, not an error: Params then holds the last candidate tried and
// BestRecall the best recall observed anywhere in the walk.
type Result struct {
	Params     algorithm.Params
	BestRecall float64
	TuningTime time.Duration
	Exhausted  bool
}

// Tune walks alg's grid in order. Each candidate is written to the backend
// via SetParams, the index is rebuilt, and the candidate is evaluated against
// every k (and every radius, when range search is supported) with
// short-circuit on the first failure. The first candidate that meets
// TargetRecall everywhere wins. Rebuild cost is charged to TuningTime.
func (c *Controller) Tune(ctx context.Context, alg algorithm.Algorithm, train, queries *dataset.Matrix, metric distance.Metric, truth TruthSource) (*Result, error) {
	if c.TargetRecall <= 0 || c.TargetRecall > 1 {
		return nil, &ErrInvalidTargetRecall{Value: c.TargetRecall}
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	budget := c.MaxSearchTime
	if budget == 0 {
		budget = DefaultMaxSearchTime
	}

	batchSize := c.BatchSize
	if batchSize == 0 {
		batchSize = executor.DefaultBatchSize
	}

	start := time.Now()

	grid := alg.Grid()
	if len(grid) == 0 {
		return &Result{
			Params:     alg.TunedParams(),
			BestRecall: 1.0,
			TuningTime: time.Since(start),
		}, nil
	}

	var (
		bestRecall float64
		lastParams algorithm.Params
	)

	for ci, candidate := range grid {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lastParams = candidate

		if err := alg.SetParams(candidate); err != nil {
			return nil, fmt.Errorf("tuning: candidate %d: %w", ci, err)
		}
		if _, err := alg.Build(ctx, train, metric); err != nil {
			return nil, fmt.Errorf("tuning: candidate %d rebuild: %w", ci, err)
		}

		candRecall, ok, err := c.evaluate(ctx, alg, queries, batchSize, budget, truth)
		if err != nil {
			return nil, fmt.Errorf("tuning: candidate %d: %w", ci, err)
		}

		if candRecall > bestRecall {
			bestRecall = candRecall
		}

		if ok {
			logger.Info("tuning candidate accepted",
				slog.String("algorithm", alg.Name()),
				slog.Any("params", candidate),
				slog.Float64("recall", candRecall),
				slog.Duration("tuning_time", time.Since(start)),
			)
			return &Result{
				Params:     candidate,
				BestRecall: candRecall,
				TuningTime: time.Since(start),
			}, nil
		}

		logger.Debug("tuning candidate rejected",
			slog.String("algorithm", alg.Name()),
			slog.Any("params", candidate),
			slog.Float64("recall", candRecall),
		)
	}

	logger.Warn("tuning grid exhausted",
		slog.String("algorithm", alg.Name()),
		slog.Float64("target_recall", c.TargetRecall),
		slog.Float64("best_recall", bestRecall),
	)

	return &Result{
		Params:     lastParams,
		BestRecall: bestRecall,
		TuningTime: time.Since(start),
		Exhausted:  true,
	}, nil
}

// evaluate scores the current backend state against every requested k and
// radius, stopping at the first recall below target. It returns the lowest
// recall it measured and whether every evaluation passed.
func (c *Controller) evaluate(ctx context.Context, alg algorithm.Algorithm, queries *dataset.Matrix, batchSize int, budget time.Duration, truth TruthSource) (float64, bool, error) {
	worst := 1.0

	score := func(search executor.BatchFunc, truthRows [][]result.Neighbor) (bool, error) {
		out, err := executor.Run(queries, batchSize, budget, search)
		if err != nil {
			return false, err
		}

		r, err := recall.Mean(truthRows, out.Results)
		if err != nil {
			return false, err
		}
		if r < worst {
			worst = r
		}
		return r >= c.TargetRecall, nil
	}

	for _, k := range c.Ks {
		truthRows, err := truth.KNN(ctx, k)
		if err != nil {
			return 0, false, err
		}

		ok, err := score(executor.KNN(alg, k), truthRows)
		if err != nil {
			return 0, false, fmt.Errorf("k=%d: %w", k, err)
		}
		if !ok {
			return worst, false, nil
		}
	}

	if !alg.SupportsRangeSearch() {
		return worst, true, nil
	}

	for _, radius := range c.Radii {
		truthRows, err := truth.Range(ctx, radius)
		if err != nil {
			return 0, false, err
		}

		ok, err := score(executor.Range(alg, radius), truthRows)
		if err != nil {
			return 0, false, fmt.Errorf("radius=%g: %w", radius, err)
		}
		if !ok {
			return worst, false, nil
		}
	}

	return worst, true, nil
}
