// Package annbench is a benchmark-and-tuning harness for approximate
// nearest-neighbor search backends.
//
// Every backend sits behind the algorithm.Algorithm capability contract.
// A benchmark Unit names a backend, a dataset variant, and the ks and radii
// to measure. The runner tunes the backend to a target recall, builds the
// index, runs wall-clock-bounded timed searches, scores recall against
// exact ground truth, and persists one run report per measurement.
//
// # Quick Start
//
//	blobs, _ := blobstore.NewLocalStore("./results")
//	runner := annbench.NewRunner(blobs, annbench.WithTargetRecall(0.95))
//
//	oracle, _ := algorithm.New(flatscan.Kind)
//	graph, _ := algorithm.New(graph.Kind)
//
//	units := []annbench.Unit{
//	    {Algorithm: oracle, Dataset: "sift", Scale: 1, Metric: distance.Euclidean,
//	        Train: train, Queries: queries, Ks: []int{10, 100}, Oracle: true},
//	    {Algorithm: graph, Dataset: "sift", Scale: 1, Metric: distance.Euclidean,
//	        Train: train, Queries: queries, Ks: []int{10, 100}},
//	}
//
//	_ = runner.Sweep(ctx, units)
//
// The oracle unit runs first in a sweep wave of its own: it writes the
// ground-truth documents the approximate backends are scored against.
package annbench
