package annbench

import (
	"time"

	"github.com/hupe1980/annbench/executor"
	"github.com/hupe1980/annbench/tuning"
)

type options struct {
	logger        *Logger
	batchSize     int
	maxSearchTime time.Duration
	targetRecall  float64
	workers       int
	compress      bool
}

func defaultOptions() options {
	return options{
		logger:        NewLogger(nil),
		batchSize:     executor.DefaultBatchSize,
		maxSearchTime: tuning.DefaultMaxSearchTime,
		targetRecall:  0.9,
		workers:       1,
	}
}

// Option configures Runner behavior.
type Option func(*options)

// WithLogger configures the logger. Nil restores the default stderr logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NewLogger(nil)
		}
		o.logger = logger
	}
}

// WithBatchSize configures the number of queries per timed search call.
func WithBatchSize(batchSize int) Option {
	return func(o *options) {
		o.batchSize = batchSize
	}
}

// WithMaxSearchTime configures the wall-clock budget of each timed run.
// Runs against large scales stop issuing batches once the budget is spent
// and report partial coverage instead of running unbounded.
func WithMaxSearchTime(d time.Duration) Option {
	return func(o *options) {
		o.maxSearchTime = d
	}
}

// WithTargetRecall configures the recall the tuning controller must reach,
// in (0, 1]. Validated when a unit runs, not here.
func WithTargetRecall(target float64) Option {
	return func(o *options) {
		o.targetRecall = target
	}
}

// WithWorkers configures how many units a sweep runs concurrently.
// Concurrent units distort each other's throughput numbers, so anything
// above 1 trades measurement fidelity for wall-clock time.
func WithWorkers(workers int) Option {
	return func(o *options) {
		if workers < 1 {
			workers = 1
		}
		o.workers = workers
	}
}

// WithCompression gzip-compresses stored ground-truth documents.
func WithCompression() Option {
	return func(o *options) {
		o.compress = true
	}
}
