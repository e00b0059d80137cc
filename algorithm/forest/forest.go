// Package forest implements a random-projection tree ensemble backend in
// the spirit of Annoy: every tree recursively splits the data with random
// hyperplanes, and a search walks all trees best-first, ranking the
// collected leaf candidates exactly. Supports kNN search only.
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/internal/queue"
)

// Kind is the registry identifier for this backend.
const Kind = algorithm.Kind("forest")

func init() {
	algorithm.Register(Kind, func() algorithm.Algorithm { return New() })
}

// Compile-time check.
var _ algorithm.Algorithm = (*Forest)(nil)

// Options contains the hyperparameters of the forest backend.
type Options struct {
	// NumTrees is the number of random-projection trees. More trees give
	// higher recall at higher build and search cost.
	NumTrees int

	// LeafSize caps the number of vectors in a leaf node.
	LeafSize int

	// Seed seeds hyperplane selection for reproducible builds.
	Seed int64
}

// DefaultOptions mirror the Annoy defaults.
var DefaultOptions = Options{
	NumTrees: 10,
	LeafSize: 32,
	Seed:     42,
}

type treeNode struct {
	// Leaf nodes carry ids and no children.
	ids []uint32

	normal []float32
	offset float32
	left   *treeNode
	right  *treeNode
}

// Forest is the random-projection forest backend.
type Forest struct {
	opts Options

	metric   distance.Metric
	distFunc distance.Func
	vectors  *dataset.Matrix
	roots    []*treeNode
}

// New creates an unbuilt forest backend with default hyperparameters.
func New(optFns ...func(o *Options)) *Forest {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Forest{opts: opts}
}

// Name implements algorithm.Algorithm.
func (f *Forest) Name() string { return string(Kind) }

// SupportsRangeSearch implements algorithm.Algorithm.
func (f *Forest) SupportsRangeSearch() bool { return false }

// RequiresTuning implements algorithm.Algorithm.
func (f *Forest) RequiresTuning() bool { return true }

// TunedParams implements algorithm.Algorithm.
func (f *Forest) TunedParams() algorithm.Params {
	return algorithm.Params{"n_trees": f.opts.NumTrees}
}

// SetParams implements algorithm.Algorithm.
func (f *Forest) SetParams(params algorithm.Params) error {
	v, ok := params["n_trees"]
	if !ok {
		return fmt.Errorf("forest: missing parameter %q", "n_trees")
	}
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case float64:
		n = int(t)
	default:
		return fmt.Errorf("forest: parameter %q has type %T, want int", "n_trees", v)
	}
	if n < 1 {
		return fmt.Errorf("forest: n_trees must be >= 1, got %d", n)
	}
	f.opts.NumTrees = n
	return nil
}

// Grid implements algorithm.Algorithm. Fewer trees are cheaper to build
// and search, so the grid runs coarse to fine.
func (f *Forest) Grid() []algorithm.Params {
	var grid []algorithm.Params
	for _, n := range []int{10, 20, 50, 100} {
		grid = append(grid, algorithm.Params{"n_trees": n})
	}
	return grid
}

// Build implements algorithm.Algorithm.
func (f *Forest) Build(ctx context.Context, train *dataset.Matrix, metric distance.Metric) (algorithm.BuildInfo, error) {
	if err := ctx.Err(); err != nil {
		return algorithm.BuildInfo{}, err
	}

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return algorithm.BuildInfo{}, &algorithm.ErrUnsupportedMetric{Algorithm: f.Name(), Metric: metric}
	}

	start := time.Now()

	vectors := train
	if metric.NeedsNormalization() {
		vectors = train.Clone()
		vectors.NormalizeL2()
	}

	rng := rand.New(rand.NewSource(f.opts.Seed))
	roots := make([]*treeNode, f.opts.NumTrees)

	all := make([]uint32, vectors.Rows())
	for i := range all {
		all[i] = uint32(i)
	}

	for ti := range roots {
		if err := ctx.Err(); err != nil {
			return algorithm.BuildInfo{}, err
		}
		ids := make([]uint32, len(all))
		copy(ids, all)
		roots[ti] = f.buildTree(vectors, ids, rng, 0)
	}

	f.metric = metric
	f.distFunc = distFunc
	f.vectors = vectors
	f.roots = roots

	return algorithm.BuildInfo{
		Cardinality:    train.Rows(),
		Dimensionality: train.Dim(),
		BuildTime:      time.Since(start),
	}, nil
}

// BatchKNNSearch implements algorithm.Algorithm.
func (f *Forest) BatchKNNSearch(queries *dataset.Matrix, k int) (*algorithm.KNNResult, error) {
	if f.vectors == nil {
		return nil, algorithm.ErrNotBuilt
	}
	if k <= 0 || k > f.vectors.Rows() {
		return nil, fmt.Errorf("forest: k must be in [1, %d], got %d", f.vectors.Rows(), k)
	}

	searchK := k * f.opts.NumTrees
	n := queries.Rows()
	distances := make([]float32, 0, n*k)
	ids := make([]uint32, 0, n*k)

	for qi := 0; qi < n; qi++ {
		q := f.query(queries.Row(qi))
		candidates := f.collect(q, searchK)

		h := queue.NewMax(k)
		for _, id := range candidates {
			h.PushBounded(queue.Item{ID: id, Distance: f.distFunc(q, f.vectors.Row(int(id)))}, k)
		}

		items := h.Drain()
		if len(items) < k {
			// Shallow trees can under-deliver candidates; the result shape
			// is an invariant, so fall back to a full scan.
			items = f.bruteForce(q, k)
		}
		for _, item := range items {
			distances = append(distances, item.Distance)
			ids = append(ids, item.ID)
		}
	}

	return algorithm.NewKNNResult(n, k, distances, ids)
}

// BatchRangeSearch implements algorithm.Algorithm. The forest backend does
// not advertise range search, so any call is an integration bug.
func (f *Forest) BatchRangeSearch(queries *dataset.Matrix, radius float32) (*algorithm.RangeResult, error) {
	return nil, &algorithm.ErrCapabilityMismatch{Algorithm: f.Name(), Op: "range search"}
}

func (f *Forest) buildTree(vectors *dataset.Matrix, ids []uint32, rng *rand.Rand, depth int) *treeNode {
	if len(ids) <= f.opts.LeafSize || depth > 32 {
		return &treeNode{ids: ids}
	}

	normal, offset, ok := splitPlane(vectors, ids, rng)
	if !ok {
		return &treeNode{ids: ids}
	}

	var left, right []uint32
	for _, id := range ids {
		if side(normal, offset, vectors.Row(int(id))) {
			right = append(right, id)
		} else {
			left = append(left, id)
		}
	}

	// A degenerate plane puts everything on one side; keep the leaf
	// rather than recursing forever.
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{ids: ids}
	}

	return &treeNode{
		normal: normal,
		offset: offset,
		left:   f.buildTree(vectors, left, rng, depth+1),
		right:  f.buildTree(vectors, right, rng, depth+1),
	}
}

// splitPlane picks two distinct sample points and returns the hyperplane
// equidistant between them.
func splitPlane(vectors *dataset.Matrix, ids []uint32, rng *rand.Rand) ([]float32, float32, bool) {
	const attempts = 5
	for attempt := 0; attempt < attempts; attempt++ {
		a := ids[rng.Intn(len(ids))]
		b := ids[rng.Intn(len(ids))]
		if a == b {
			continue
		}

		va, vb := vectors.Row(int(a)), vectors.Row(int(b))
		normal := make([]float32, len(va))
		var norm2 float64
		for i := range normal {
			normal[i] = va[i] - vb[i]
			norm2 += float64(normal[i]) * float64(normal[i])
		}
		if norm2 == 0 {
			continue
		}

		var offset float32
		for i := range normal {
			offset += normal[i] * (va[i] + vb[i]) / 2
		}
		return normal, offset, true
	}
	return nil, 0, false
}

func side(normal []float32, offset float32, v []float32) bool {
	return distance.Dot(normal, v) >= offset
}

// collect walks all trees best-first by hyperplane margin and returns up
// to searchK distinct candidate ids.
func (f *Forest) collect(q []float32, searchK int) []uint32 {
	pq := &marginQueue{}
	for _, root := range f.roots {
		pq.push(queuedNode{node: root, priority: float32(math.Inf(1))})
	}

	seen := make(map[uint32]struct{}, searchK)
	var out []uint32

	for pq.len() > 0 && len(out) < searchK {
		item := pq.pop()
		node := item.node

		if node.left == nil {
			for _, id := range node.ids {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
			continue
		}

		margin := distance.Dot(node.normal, q) - node.offset
		pq.push(queuedNode{node: node.right, priority: minf(item.priority, margin)})
		pq.push(queuedNode{node: node.left, priority: minf(item.priority, -margin)})
	}

	return out
}

func (f *Forest) bruteForce(q []float32, k int) []queue.Item {
	h := queue.NewMax(k)
	for i := 0; i < f.vectors.Rows(); i++ {
		h.PushBounded(queue.Item{ID: uint32(i), Distance: f.distFunc(q, f.vectors.Row(i))}, k)
	}
	return h.Drain()
}

func (f *Forest) query(q []float32) []float32 {
	if f.metric.NeedsNormalization() {
		if n, ok := distance.NormalizeL2Copy(q); ok {
			return n
		}
	}
	return q
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
