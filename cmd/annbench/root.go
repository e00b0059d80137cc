// Package main implements the annbench CLI: benchmark ANN search backends
// against an exact reference on recall and throughput.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annbench"

	// Registered backends.
	_ "github.com/hupe1980/annbench/algorithm/flatscan"
	_ "github.com/hupe1980/annbench/algorithm/forest"
	_ "github.com/hupe1980/annbench/algorithm/graph"
	_ "github.com/hupe1980/annbench/algorithm/partitioned"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "annbench",
	Short: "Benchmark ANN search backends against an exact reference",
	Long: `annbench tunes approximate nearest-neighbor backends to a target recall,
then measures their throughput with wall-clock-bounded timed searches and
scores them against ground truth from an exact scan.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() *annbench.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return annbench.NewTextLogger(level)
}
