package annbench

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/blobstore"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/executor"
	"github.com/hupe1980/annbench/groundtruth"
	"github.com/hupe1980/annbench/recall"
	"github.com/hupe1980/annbench/report"
	"github.com/hupe1980/annbench/result"
	"github.com/hupe1980/annbench/tuning"
)

// Unit is one benchmarkable combination: a backend against a dataset
// variant, measured at the given ks and radii.
type Unit struct {
	Algorithm algorithm.Algorithm
	Dataset   string
	Scale     int
	Metric    distance.Metric
	Train     *dataset.Matrix
	Queries   *dataset.Matrix
	Ks        []int
	Radii     []float32

	// Oracle marks the exact backend: instead of being scored against
	// ground truth, it writes the ground-truth documents and records
	// recall 1.0. Oracle units must run before the units they back.
	Oracle bool
}

// Runner executes benchmark units: tune, build, timed search, recall,
// report.
type Runner struct {
	truth   *groundtruth.Store
	reports *report.Store
	opts    options
}

// NewRunner creates a runner whose ground truth and reports live in blobs.
func NewRunner(blobs blobstore.Store, optFns ...Option) *Runner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var gtOpts []groundtruth.Option
	if opts.compress {
		gtOpts = append(gtOpts, groundtruth.WithCompression())
	}

	return &Runner{
		truth:   groundtruth.NewStore(blobs, gtOpts...),
		reports: report.NewStore(blobs),
		opts:    opts,
	}
}

// Reports exposes the report store for aggregation tooling.
func (r *Runner) Reports() *report.Store { return r.reports }

// GroundTruth exposes the ground-truth store.
func (r *Runner) GroundTruth() *groundtruth.Store { return r.truth }

// RunUnit runs one unit end to end and persists a report per measurement.
func (r *Runner) RunUnit(ctx context.Context, unit Unit) error {
	if err := r.runUnit(ctx, unit); err != nil {
		return fmt.Errorf("annbench: unit %s/%s/%d/%s: %w",
			unit.Algorithm.Name(), unit.Dataset, unit.Scale, unit.Metric, err)
	}
	return nil
}

func (r *Runner) runUnit(ctx context.Context, unit Unit) error {
	if r.opts.targetRecall <= 0 || r.opts.targetRecall > 1 {
		return &tuning.ErrInvalidTargetRecall{Value: r.opts.targetRecall}
	}

	alg := unit.Algorithm

	// Capability check happens up front, before any index work.
	if len(unit.Radii) > 0 && !alg.SupportsRangeSearch() {
		return &algorithm.ErrCapabilityMismatch{Algorithm: alg.Name(), Op: "range search"}
	}

	logger := r.opts.logger.WithAlgorithm(alg.Name()).WithDataset(unit.Dataset, unit.Scale)
	key := groundtruth.Key{Dataset: unit.Dataset, Scale: unit.Scale, Metric: unit.Metric}

	var tuningTime float64
	if alg.RequiresTuning() && !unit.Oracle {
		ctrl := &tuning.Controller{
			TargetRecall:  r.opts.targetRecall,
			MaxSearchTime: r.opts.maxSearchTime,
			BatchSize:     r.opts.batchSize,
			Ks:            unit.Ks,
			Radii:         unit.Radii,
			Logger:        logger.Logger,
		}

		res, err := ctrl.Tune(ctx, alg, unit.Train, unit.Queries, unit.Metric, &storeTruth{store: r.truth, key: key})
		if err != nil {
			return err
		}
		tuningTime = res.TuningTime.Seconds()
	}

	info, err := alg.Build(ctx, unit.Train, unit.Metric)
	if err != nil {
		return err
	}

	logger.Info("index built",
		"cardinality", info.Cardinality,
		"dimensionality", info.Dimensionality,
		"build_time", info.BuildTime,
	)

	base := report.Report{
		Algorithm:      alg.Name(),
		Dataset:        unit.Dataset,
		Scale:          unit.Scale,
		Metric:         unit.Metric,
		Cardinality:    info.Cardinality,
		Dimensionality: info.Dimensionality,
		TuningTime:     tuningTime,
		TunedParams:    alg.TunedParams(),
		IndexBuildTime: info.BuildTime.Seconds(),
	}

	for _, k := range unit.Ks {
		if err := r.measure(ctx, unit, base, logger.WithK(k),
			executor.KNN(alg, k),
			func(out [][]result.Neighbor) error { return r.truth.SaveKNN(ctx, key, k, out) },
			func() ([][]result.Neighbor, error) { return r.truth.LoadKNN(ctx, key, k) },
			func(rep *report.Report) { rep.K = k },
		); err != nil {
			return fmt.Errorf("k=%d: %w", k, err)
		}
	}

	for _, radius := range unit.Radii {
		if err := r.measure(ctx, unit, base, logger.WithRadius(radius),
			executor.Range(alg, radius),
			func(out [][]result.Neighbor) error { return r.truth.SaveRange(ctx, key, radius, out) },
			func() ([][]result.Neighbor, error) { return r.truth.LoadRange(ctx, key, radius) },
			func(rep *report.Report) { rep.Radius = float64(radius) },
		); err != nil {
			return fmt.Errorf("radius=%g: %w", radius, err)
		}
	}

	return nil
}

// measure runs one timed search, scores it, and persists the report.
func (r *Runner) measure(
	ctx context.Context,
	unit Unit,
	base report.Report,
	logger *Logger,
	search executor.BatchFunc,
	saveTruth func([][]result.Neighbor) error,
	loadTruth func() ([][]result.Neighbor, error),
	tag func(*report.Report),
) error {
	out, err := executor.Run(unit.Queries, r.opts.batchSize, r.opts.maxSearchTime, search)
	if err != nil {
		return err
	}

	var rec float64
	if unit.Oracle {
		// The oracle defines the truth; its recall is 1.0 by construction.
		if err := saveTruth(out.Results); err != nil {
			return err
		}
		rec = 1.0
	} else {
		truthRows, err := loadTruth()
		if err != nil {
			return err
		}
		rec, err = recall.Mean(truthRows, out.Results)
		if err != nil {
			return err
		}
	}

	rep := base
	rep.NumQueries = out.Processed
	rep.Throughput = out.Throughput
	rep.Recall = rec
	rep.Partial = out.Partial
	tag(&rep)

	if err := r.reports.Save(ctx, &rep); err != nil {
		return err
	}

	logger.Info("measurement complete",
		"throughput", out.Throughput,
		"recall", rec,
		"num_queries", out.Processed,
		"partial", out.Partial,
	)
	return nil
}

// Sweep runs units concurrently with the configured worker bound. A failing
// unit is logged and skipped; it never stops the sweep. The returned error
// is non-nil only when the context is cancelled.
func (r *Runner) Sweep(ctx context.Context, units []Unit) error {
	g := new(errgroup.Group)
	g.SetLimit(r.opts.workers)

	var failed atomic.Int64

	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.RunUnit(ctx, unit); err != nil {
				failed.Add(1)
				r.opts.logger.Error("unit failed",
					"algorithm", unit.Algorithm.Name(),
					"dataset", unit.Dataset,
					"scale", unit.Scale,
					"error", err,
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		r.opts.logger.Warn("sweep finished with failures", "failed", n, "total", len(units))
	}
	return nil
}

// storeTruth adapts the ground-truth store to the tuning controller's
// truth source.
type storeTruth struct {
	store *groundtruth.Store
	key   groundtruth.Key
}

var _ tuning.TruthSource = (*storeTruth)(nil)

func (s *storeTruth) KNN(ctx context.Context, k int) ([][]result.Neighbor, error) {
	return s.store.LoadKNN(ctx, s.key, k)
}

func (s *storeTruth) Range(ctx context.Context, radius float32) ([][]result.Neighbor, error) {
	return s.store.LoadRange(ctx, s.key, radius)
}
