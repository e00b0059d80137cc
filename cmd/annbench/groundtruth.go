package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annbench"
	"github.com/hupe1980/annbench/algorithm/flatscan"
	"github.com/hupe1980/annbench/blobstore"
	"github.com/hupe1980/annbench/distance"
)

var gtFlags struct {
	train         string
	queries       string
	dataset       string
	scale         int
	metric        string
	ks            []int
	radii         []float32
	output        string
	batchSize     int
	maxSearchTime time.Duration
	compress      bool
}

var groundTruthCmd = &cobra.Command{
	Use:   "ground-truth",
	Short: "Compute exact ground truth with the flat-scan oracle",
	Long: `Run the exact flat-scan backend and persist its neighbor lists as the
ground-truth documents approximate backends are scored against.`,
	RunE: runGroundTruth,
}

func init() {
	f := groundTruthCmd.Flags()
	f.StringVar(&gtFlags.train, "train", "", "path to the training vectors")
	f.StringVar(&gtFlags.queries, "queries", "", "path to the query vectors")
	f.StringVarP(&gtFlags.dataset, "dataset", "d", "", "dataset name used in keys")
	f.IntVar(&gtFlags.scale, "scale", 1, "dataset scale factor")
	f.StringVarP(&gtFlags.metric, "metric", "m", "euclidean", "distance metric (euclidean, cosine)")
	f.IntSliceVarP(&gtFlags.ks, "k", "k", nil, "neighbor counts to compute")
	f.Float32SliceVarP(&gtFlags.radii, "radius", "r", nil, "search radii to compute")
	f.StringVarP(&gtFlags.output, "output", "o", "./results", "output directory")
	f.IntVar(&gtFlags.batchSize, "batch-size", 100, "queries per timed batch")
	f.DurationVar(&gtFlags.maxSearchTime, "max-search-time", time.Hour, "wall-clock budget; keep generous so truth covers every query")
	f.BoolVar(&gtFlags.compress, "compress", false, "gzip-compress ground-truth documents")

	for _, name := range []string{"train", "queries", "dataset"} {
		cobra.CheckErr(groundTruthCmd.MarkFlagRequired(name))
	}
	rootCmd.AddCommand(groundTruthCmd)
}

func runGroundTruth(cmd *cobra.Command, _ []string) error {
	metric, err := distance.Parse(gtFlags.metric)
	if err != nil {
		return err
	}

	train, err := loadMatrix(gtFlags.train)
	if err != nil {
		return err
	}
	defer train.Close()

	queries, err := loadMatrix(gtFlags.queries)
	if err != nil {
		return err
	}
	defer queries.Close()

	blobs, err := blobstore.NewLocalStore(gtFlags.output)
	if err != nil {
		return err
	}

	opts := []annbench.Option{
		annbench.WithLogger(newLogger()),
		annbench.WithBatchSize(gtFlags.batchSize),
		annbench.WithMaxSearchTime(gtFlags.maxSearchTime),
	}
	if gtFlags.compress {
		opts = append(opts, annbench.WithCompression())
	}

	runner := annbench.NewRunner(blobs, opts...)

	return runner.RunUnit(cmd.Context(), annbench.Unit{
		Algorithm: flatscan.New(),
		Dataset:   gtFlags.dataset,
		Scale:     gtFlags.scale,
		Metric:    metric,
		Train:     train,
		Queries:   queries,
		Ks:        gtFlags.ks,
		Radii:     gtFlags.radii,
		Oracle:    true,
	})
}
