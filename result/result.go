// Package result defines the harness-side neighbor representation shared by
// the timed executor, the recall metric and the ground-truth store.
package result

import (
	"encoding/json"
	"fmt"
	"math"
)

// Neighbor is one (index, distance) pair. Backend-specific result arrays
// are coerced into this plain form before recall scoring or persistence.
//
// The JSON form is a two-element array [index, distance], matching the
// ground-truth document layout.
type Neighbor struct {
	Index    int
	Distance float32
}

// Validate checks the numeric policy: indices are non-negative and
// distances are finite. NaN or Inf is a data error, not something to
// silently filter.
func (n Neighbor) Validate() error {
	if n.Index < 0 {
		return fmt.Errorf("result: negative neighbor index %d", n.Index)
	}
	d := float64(n.Distance)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Errorf("result: non-finite distance %g for index %d", d, n.Index)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Neighbor) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{n.Index, n.Distance})
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Neighbor) UnmarshalJSON(data []byte) error {
	var pair [2]json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("result: neighbor must be an [index, distance] pair: %w", err)
	}

	idx, err := pair[0].Int64()
	if err != nil {
		return fmt.Errorf("result: invalid neighbor index %q: %w", pair[0], err)
	}
	dist, err := pair[1].Float64()
	if err != nil {
		return fmt.Errorf("result: invalid neighbor distance %q: %w", pair[1], err)
	}

	n.Index = int(idx)
	n.Distance = float32(dist)
	return nil
}
