// Package recall computes set-membership recall of candidate neighbor lists
// against ground-truth neighbor lists.
package recall

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/annbench/result"
)

// Query computes the recall of a single candidate list against its truth
// list: the fraction of truth indices present among the candidates. Order
// and distances are ignored; only membership counts. An empty truth list
// scores 1.0 against an empty candidate list and 0.0 otherwise; a
// non-empty truth list with no candidates scores 0.0.
func Query(truth, candidates []result.Neighbor) float64 {
	if len(truth) == 0 {
		if len(candidates) == 0 {
			return 1.0
		}
		return 0.0
	}
	if len(candidates) == 0 {
		return 0.0
	}

	truthSet := roaring.New()
	for _, nb := range truth {
		truthSet.Add(uint32(nb.Index))
	}

	found := roaring.New()
	for _, nb := range candidates {
		id := uint32(nb.Index)
		if truthSet.Contains(id) {
			found.Add(id)
		}
	}

	return float64(found.GetCardinality()) / float64(truthSet.GetCardinality())
}

// Mean computes the unweighted mean of per-query recalls over a whole run.
// Truth and candidate lists are matched positionally; the candidate set may
// be a prefix of the truth set when a run was cut short, in which case only
// the covered prefix is scored.
func Mean(truth, candidates [][]result.Neighbor) (float64, error) {
	if len(candidates) > len(truth) {
		return 0, fmt.Errorf("recall: %d candidate lists but only %d truth lists", len(candidates), len(truth))
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("recall: no candidate lists to score")
	}

	var sum float64
	for i, row := range candidates {
		sum += Query(truth[i], row)
	}
	return sum / float64(len(candidates)), nil
}
