// Package graph implements an HNSW-style backend: a hierarchy of proximity
// graphs navigated greedily from a single entry point. Supports kNN search
// only; range search is not part of its capability set.
package graph

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
const Kind = algorithm.Kind("graph")

func init() {
	algorithm.Register(Kind, func() algorithm.Algorithm { return New() })
}

// Compile-time check.
var _ algorithm.Algorithm = (*Graph)(nil)

// Options contains the hyperparameters of the graph backend.
type Options struct {
	// M is the maximum number of bidirectional links per node above the
	// base layer; the base layer allows 2*M.
	M int

	// EFConstruction is the beam width used while inserting nodes.
	// Larger values produce better graphs at higher build cost.
	EFConstruction int

	// Seed seeds level assignment for reproducible builds.
	Seed int64
}

// DefaultOptions mirror common HNSW library defaults.
var DefaultOptions = Options{
	M:              16,
	EFConstruction: 100,
	Seed:           42,
}

type node struct {
	// neighbors[l] holds the links at level l; level 0 is the base layer.
	neighbors [][]uint32
}

// Graph is the HNSW-style backend.
type Graph struct {
	opts Options

	metric   distance.Metric
	distFunc distance.Func
	vectors  *dataset.Matrix

	nodes     []node
	entry     uint32
	maxLevel  int
	levelMult float64
}

// New creates an unbuilt graph backend with default hyperparameters.
func New(optFns ...func(o *Options)) *Graph {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Graph{opts: opts}
}

// Name implements algorithm.Algorithm.
func (g *Graph) Name() string { return string(Kind) }

// SupportsRangeSearch implements algorithm.Algorithm.
func (g *Graph) SupportsRangeSearch() bool { return false }

// RequiresTuning implements algorithm.Algorithm.
func (g *Graph) RequiresTuning() bool { return true }

// TunedParams implements algorithm.Algorithm.
func (g *Graph) TunedParams() algorithm.Params {
	return algorithm.Params{
		"M":               g.opts.M,
		"ef_construction": g.opts.EFConstruction,
	}
}

// SetParams implements algorithm.Algorithm.
func (g *Graph) SetParams(params algorithm.Params) error {
	m, err := paramInt(params, "M")
	if err != nil {
		return err
	}
	ef, err := paramInt(params, "ef_construction")
	if err != nil {
		return err
	}
	if m < 2 || ef < 1 {
		return fmt.Errorf("graph: M must be >= 2 and ef_construction >= 1, got %d, %d", m, ef)
	}
	g.opts.M = m
	g.opts.EFConstruction = ef
	return nil
}

// Grid implements algorithm.Algorithm. Cheap construction settings first.
func (g *Graph) Grid() []algorithm.Params {
	var grid []algorithm.Params
	for _, ef := range []int{100, 200, 500} {
		for _, m := range []int{8, 16, 32} {
			grid = append(grid, algorithm.Params{"M": m, "ef_construction": ef})
		}
	}
	return grid
}

// Build implements algorithm.Algorithm.
func (g *Graph) Build(ctx context.Context, train *dataset.Matrix, metric distance.Metric) (algorithm.BuildInfo, error) {
	if err := ctx.Err(); err != nil {
		return algorithm.BuildInfo{}, err
	}

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return algorithm.BuildInfo{}, &algorithm.ErrUnsupportedMetric{Algorithm: g.Name(), Metric: metric}
	}

	start := time.Now()

	vectors := train
	if metric.NeedsNormalization() {
		vectors = train.Clone()
		vectors.NormalizeL2()
	}

	g.metric = metric
	g.distFunc = distFunc
	g.vectors = vectors
	g.nodes = make([]node, vectors.Rows())
	g.entry = 0
	g.maxLevel = 0
	g.levelMult = 1 / math.Log(float64(g.opts.M))

	rng := rand.New(rand.NewSource(g.opts.Seed))
	for i := 0; i < vectors.Rows(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return algorithm.BuildInfo{}, err
			}
		}
		g.insert(uint32(i), rng)
	}

	return algorithm.BuildInfo{
		Cardinality:    train.Rows(),
		Dimensionality: train.Dim(),
		BuildTime:      time.Since(start),
	}, nil
}

// BatchKNNSearch implements algorithm.Algorithm.
func (g *Graph) BatchKNNSearch(queries *dataset.Matrix, k int) (*algorithm.KNNResult, error) {
	if g.vectors == nil {
		return nil, algorithm.ErrNotBuilt
	}
	if k <= 0 || k > g.vectors.Rows() {
		return nil, fmt.Errorf("graph: k must be in [1, %d], got %d", g.vectors.Rows(), k)
	}

	ef := max(2*k, 100)
	n := queries.Rows()
	distances := make([]float32, 0, n*k)
	ids := make([]uint32, 0, n*k)

	for qi := 0; qi < n; qi++ {
		q := g.query(queries.Row(qi))

		curr, currDist := g.descend(q)
		results := g.searchLayer(q, curr, currDist, 0, ef)

		items := results.Drain()
		if len(items) < k {
			// A sparse graph can strand queries below k reachable nodes;
			// the result shape is an invariant, so fall back to a full scan.
			items = g.bruteForce(q, k)
		}
		for _, item := range items[:k] {
			distances = append(distances, item.Distance)
			ids = append(ids, item.ID)
		}
	}

	return algorithm.NewKNNResult(n, k, distances, ids)
}

// BatchRangeSearch implements algorithm.Algorithm. The graph backend does
// not advertise range search, so any call is an integration bug.
func (g *Graph) BatchRangeSearch(queries *dataset.Matrix, radius float32) (*algorithm.RangeResult, error) {
	return nil, &algorithm.ErrCapabilityMismatch{Algorithm: g.Name(), Op: "range search"}
}

// insert wires vector id into the graph.
func (g *Graph) insert(id uint32, rng *rand.Rand) {
	level := int(math.Floor(-math.Log(rng.Float64()) * g.levelMult))
	g.nodes[id].neighbors = make([][]uint32, level+1)

	if id == 0 {
		g.maxLevel = level
		g.entry = 0
		return
	}

	q := g.vectors.Row(int(id))
	curr := g.entry
	currDist := g.distFunc(q, g.vectors.Row(int(curr)))

	for l := g.maxLevel; l > level; l-- {
		curr, currDist = g.greedyStep(q, curr, currDist, l)
	}

	for l := min(level, g.maxLevel); l >= 0; l-- {
		results := g.searchLayer(q, curr, currDist, l, g.opts.EFConstruction)
		items := results.Drain()

		m := g.maxNeighbors(l)
		if len(items) > m {
			items = items[:m]
		}

		for _, item := range items {
			g.nodes[id].neighbors[l] = append(g.nodes[id].neighbors[l], item.ID)
			g.addLink(item.ID, id, l)
		}

		if len(items) > 0 {
			curr = items[0].ID
			currDist = items[0].Distance
		}
	}

	if level > g.maxLevel {
		g.maxLevel = level
		g.entry = id
	}
}

// addLink connects src -> dst at the given level, pruning to the closest
// links when the node exceeds its degree bound.
func (g *Graph) addLink(src, dst uint32, level int) {
	conns := append(g.nodes[src].neighbors[level], dst)

	m := g.maxNeighbors(level)
	if len(conns) > m {
		v := g.vectors.Row(int(src))
		h := queue.NewMax(len(conns))
		for _, c := range conns {
			h.PushBounded(queue.Item{ID: c, Distance: g.distFunc(v, g.vectors.Row(int(c)))}, m)
		}
		conns = conns[:0]
		for _, item := range h.Drain() {
			conns = append(conns, item.ID)
		}
	}

	g.nodes[src].neighbors[level] = conns
}

func (g *Graph) maxNeighbors(level int) int {
	if level == 0 {
		return 2 * g.opts.M
	}
	return g.opts.M
}

// descend runs the greedy upper-layer descent down to level 1.
func (g *Graph) descend(q []float32) (uint32, float32) {
	curr := g.entry
	currDist := g.distFunc(q, g.vectors.Row(int(curr)))
	for l := g.maxLevel; l >= 1; l-- {
		curr, currDist = g.greedyStep(q, curr, currDist, l)
	}
	return curr, currDist
}

// greedyStep moves to the closest neighbor at the level until no
// improvement is possible.
func (g *Graph) greedyStep(q []float32, curr uint32, currDist float32, level int) (uint32, float32) {
	for {
		improved := false
		for _, c := range g.neighborsAt(curr, level) {
			if d := g.distFunc(q, g.vectors.Row(int(c))); d < currDist {
				curr = c
				currDist = d
				improved = true
			}
		}
		if !improved {
			return curr, currDist
		}
	}
}

func (g *Graph) neighborsAt(id uint32, level int) []uint32 {
	if level >= len(g.nodes[id].neighbors) {
		return nil
	}
	return g.nodes[id].neighbors[level]
}

// searchLayer runs a beam search of width ef at the given level and
// returns a max-heap of at most ef results.
func (g *Graph) searchLayer(q []float32, entry uint32, entryDist float32, level, ef int) *queue.Heap {
	visited := make([]bool, len(g.nodes))
	visited[entry] = true

	candidates := queue.NewMin(ef)
	candidates.Push(queue.Item{ID: entry, Distance: entryDist})

	results := queue.NewMax(ef)
	results.Push(queue.Item{ID: entry, Distance: entryDist})

	for candidates.Len() > 0 {
		curr, _ := candidates.Pop()

		if worst, ok := results.Top(); ok && results.Len() >= ef && curr.Distance > worst.Distance {
			break
		}

		for _, c := range g.neighborsAt(curr.ID, level) {
			if visited[c] {
				continue
			}
			visited[c] = true

			d := g.distFunc(q, g.vectors.Row(int(c)))
			if worst, ok := results.Top(); !ok || results.Len() < ef || d < worst.Distance {
				candidates.Push(queue.Item{ID: c, Distance: d})
				results.PushBounded(queue.Item{ID: c, Distance: d}, ef)
			}
		}
	}

	return results
}

func (g *Graph) bruteForce(q []float32, k int) []queue.Item {
	h := queue.NewMax(k)
	for i := 0; i < g.vectors.Rows(); i++ {
		h.PushBounded(queue.Item{ID: uint32(i), Distance: g.distFunc(q, g.vectors.Row(i))}, k)
	}
	return h.Drain()
}

func (g *Graph) query(q []float32) []float32 {
	if g.metric.NeedsNormalization() {
		if n, ok := distance.NormalizeL2Copy(q); ok {
			return n
		}
	}
	return q
}

func paramInt(p algorithm.Params, key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("graph: missing parameter %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("graph: parameter %q has type %T, want int", key, v)
	}
}
