package result

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPairForm(t *testing.T) {
	data, err := json.Marshal(Neighbor{Index: 7, Distance: 1.5})
	require.NoError(t, err)
	assert.JSONEq(t, `[7, 1.5]`, string(data))

	var n Neighbor
	require.NoError(t, json.Unmarshal([]byte(`[7, 1.5]`), &n))
	assert.Equal(t, Neighbor{Index: 7, Distance: 1.5}, n)
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	var n Neighbor
	assert.Error(t, json.Unmarshal([]byte(`{"index": 7}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`["x", 1.5]`), &n))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Neighbor{Index: 0, Distance: 0}.Validate())
	assert.Error(t, Neighbor{Index: -1, Distance: 1}.Validate())
	assert.Error(t, Neighbor{Index: 1, Distance: float32(math.NaN())}.Validate())
	assert.Error(t, Neighbor{Index: 1, Distance: float32(math.Inf(1))}.Validate())
}
