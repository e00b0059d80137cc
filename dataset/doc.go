// Package dataset provides dense float32 matrices for training vectors and
// query sets, on-disk loading (raw binary via mmap, JSON with optional gzip),
// and synthetic scale augmentation for benchmarking at larger cardinalities.
package dataset
