// Package testutil provides testing utilities for annbench.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random datasets and computing exact
// neighbor lists without going through a backend.
//
// # Random Dataset Generation
//
//	rng := testutil.NewRNG(seed)
//	train := testutil.UniformMatrix(t, rng, 1000, 128)
//
// # Exact Neighbors (Ground Truth)
//
//	truth := testutil.BruteKNN(train, queries, 10, distance.Euclidean)
package testutil
