package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/annbench"
	"github.com/hupe1980/annbench/blobstore"
)

var sweepConfigPath string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a full benchmark sweep from a YAML config",
	Long: `Run every (algorithm, scale) combination a sweep config describes.

The exact flat-scan oracle runs first for each scale and writes the
ground-truth documents; the approximate backends are then tuned, measured,
and scored against them. A failing unit is logged and skipped.

Example config:

  output: ./results
  target_recall: 0.95
  max_search_time: 10s
  dataset:
    name: sift
    train: ./data/sift-train.bin
    queries: ./data/sift-queries.bin
    metric: euclidean
    scales: [1, 2, 4]
    error_rate: 0.1
    seed: 42
  ks: [10, 100]
  radii: [0.5]
  algorithms: [graph, partitioned, forest]`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "c", "sweep.yaml", "path to the sweep config")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadSweepConfig(sweepConfigPath)
	if err != nil {
		return err
	}

	logger := newLogger()

	opts, err := cfg.RunnerOptions(logger)
	if err != nil {
		return err
	}

	blobs, err := blobstore.NewLocalStore(cfg.Output)
	if err != nil {
		return err
	}
	runner := annbench.NewRunner(blobs, opts...)

	oracles, units, err := cfg.Units()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Oracle units run strictly first: everything else is scored against
	// the ground truth they write.
	for _, oracle := range oracles {
		if err := runner.RunUnit(ctx, oracle); err != nil {
			return err
		}
	}

	return runner.Sweep(ctx, units)
}
