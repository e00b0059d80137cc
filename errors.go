package annbench

import (
	"errors"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/groundtruth"
	"github.com/hupe1980/annbench/tuning"
)

// IsConfigurationError reports whether err is a bad-argument problem the
// caller must fix before anything can run: an invalid target recall or a
// metric the backend cannot serve.
func IsConfigurationError(err error) bool {
	var itr *tuning.ErrInvalidTargetRecall
	if errors.As(err, &itr) {
		return true
	}
	var um *algorithm.ErrUnsupportedMetric
	return errors.As(err, &um)
}

// IsCapabilityMismatch reports whether err means an operation was requested
// from a backend that does not advertise it. This marks an integration bug
// in the benchmark setup, not a property of the data.
func IsCapabilityMismatch(err error) bool {
	var cm *algorithm.ErrCapabilityMismatch
	if errors.As(err, &cm) {
		return true
	}
	var sm *algorithm.ErrShapeMismatch
	return errors.As(err, &sm)
}

// IsMissingGroundTruth reports whether err means a measurement had no
// ground-truth document to score against. Fatal for that measurement;
// a sweep skips the unit and continues.
func IsMissingGroundTruth(err error) bool {
	var mg *groundtruth.ErrMissingGroundTruth
	return errors.As(err, &mg)
}
