package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annbench"
	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/blobstore"
	"github.com/hupe1980/annbench/distance"
)

var runFlags struct {
	algorithm     string
	train         string
	queries       string
	dataset       string
	scale         int
	metric        string
	ks            []int
	radii         []float32
	output        string
	targetRecall  float64
	batchSize     int
	maxSearchTime time.Duration
	oracle        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single benchmark unit",
	Long: `Tune, build, and measure one backend against one dataset variant.

Approximate backends need ground truth in the output directory first; write
it with the ground-truth command (or run with --oracle).`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.algorithm, "algorithm", "a", "", "backend kind (flat-scan, partitioned, graph, forest)")
	f.StringVar(&runFlags.train, "train", "", "path to the training vectors")
	f.StringVar(&runFlags.queries, "queries", "", "path to the query vectors")
	f.StringVarP(&runFlags.dataset, "dataset", "d", "", "dataset name used in keys")
	f.IntVar(&runFlags.scale, "scale", 1, "dataset scale factor recorded in reports")
	f.StringVarP(&runFlags.metric, "metric", "m", "euclidean", "distance metric (euclidean, cosine)")
	f.IntSliceVarP(&runFlags.ks, "k", "k", nil, "neighbor counts to measure")
	f.Float32SliceVarP(&runFlags.radii, "radius", "r", nil, "search radii to measure")
	f.StringVarP(&runFlags.output, "output", "o", "./results", "output directory")
	f.Float64Var(&runFlags.targetRecall, "target-recall", 0.9, "tuning target recall in (0, 1]")
	f.IntVar(&runFlags.batchSize, "batch-size", 100, "queries per timed batch")
	f.DurationVar(&runFlags.maxSearchTime, "max-search-time", 10*time.Second, "wall-clock budget per timed run")
	f.BoolVar(&runFlags.oracle, "oracle", false, "write ground truth instead of being scored against it")

	for _, name := range []string{"algorithm", "train", "queries", "dataset"} {
		cobra.CheckErr(runCmd.MarkFlagRequired(name))
	}
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	metric, err := distance.Parse(runFlags.metric)
	if err != nil {
		return err
	}

	alg, err := algorithm.New(algorithm.Kind(runFlags.algorithm))
	if err != nil {
		return err
	}

	train, err := loadMatrix(runFlags.train)
	if err != nil {
		return err
	}
	defer train.Close()

	queries, err := loadMatrix(runFlags.queries)
	if err != nil {
		return err
	}
	defer queries.Close()

	blobs, err := blobstore.NewLocalStore(runFlags.output)
	if err != nil {
		return err
	}

	runner := annbench.NewRunner(blobs,
		annbench.WithLogger(newLogger()),
		annbench.WithTargetRecall(runFlags.targetRecall),
		annbench.WithBatchSize(runFlags.batchSize),
		annbench.WithMaxSearchTime(runFlags.maxSearchTime),
	)

	return runner.RunUnit(cmd.Context(), annbench.Unit{
		Algorithm: alg,
		Dataset:   runFlags.dataset,
		Scale:     runFlags.scale,
		Metric:    metric,
		Train:     train,
		Queries:   queries,
		Ks:        runFlags.ks,
		Radii:     runFlags.radii,
		Oracle:    runFlags.oracle,
	})
}
