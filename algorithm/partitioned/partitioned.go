// Package partitioned implements an IVF-style backend: training vectors are
// clustered into nlist partitions by k-means, and a search scans only the
// nprobe partitions whose centroids are closest to the query.
package partitioned

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
	"github.com/hupe1980/annbench/internal/kmeans"
	"github.com/hupe1980/annbench/internal/queue"
)

// Kind is the registry identifier for this backend.
const Kind = algorithm.Kind("partitioned")

func init() {
	algorithm.Register(Kind, func() algorithm.Algorithm { return New() })
}

// Compile-time check.
var _ algorithm.Algorithm = (*Partitioned)(nil)

const maxTrainIter = 25

// Options contains the hyperparameters of the partitioned backend.
type Options struct {
	// NList is the number of k-means partitions built over the training set.
	NList int

	// NProbe is the number of partitions scanned per query.
	NProbe int

	// Seed seeds centroid initialization for reproducible builds.
	Seed int64
}

// DefaultOptions mirror the defaults of common IVF implementations.
var DefaultOptions = Options{
	NList:  100,
	NProbe: 100,
	Seed:   42,
}

// Partitioned is the IVF-style backend.
type Partitioned struct {
	opts Options

	metric    distance.Metric
	distFunc  distance.Func
	vectors   *dataset.Matrix
	centroids []float32 // nlist * dim, nlist possibly clamped at build
	lists     [][]uint32
}

// New creates an unbuilt partitioned backend with default hyperparameters.
func New(optFns ...func(o *Options)) *Partitioned {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Partitioned{opts: opts}
}

// Name implements algorithm.Algorithm.
func (p *Partitioned) Name() string { return string(Kind) }

// SupportsRangeSearch implements algorithm.Algorithm. Range search scans the
// probed partitions only, so results are approximate like the kNN path.
func (p *Partitioned) SupportsRangeSearch() bool { return true }

// RequiresTuning implements algorithm.Algorithm.
func (p *Partitioned) RequiresTuning() bool { return true }

// TunedParams implements algorithm.Algorithm.
func (p *Partitioned) TunedParams() algorithm.Params {
	return algorithm.Params{
		"nlist":  p.opts.NList,
		"nprobe": p.opts.NProbe,
	}
}

// SetParams implements algorithm.Algorithm.
func (p *Partitioned) SetParams(params algorithm.Params) error {
	nlist, err := paramInt(params, "nlist")
	if err != nil {
		return err
	}
	nprobe, err := paramInt(params, "nprobe")
	if err != nil {
		return err
	}
	if nlist < 1 || nprobe < 1 {
		return fmt.Errorf("partitioned: nlist and nprobe must be >= 1, got %d, %d", nlist, nprobe)
	}
	p.opts.NList = nlist
	p.opts.NProbe = nprobe
	return nil
}

// Grid implements algorithm.Algorithm. Large nlist with small nprobe scans
// the smallest fraction of the data, so candidates run coarse/fast to
// fine/slow as the tuning controller expects.
func (p *Partitioned) Grid() []algorithm.Params {
	sizes := []int{1, 10, 100}

	var grid []algorithm.Params
	for i := len(sizes) - 1; i >= 0; i-- {
		nlist := sizes[i]
		for _, nprobe := range sizes {
			if nprobe > nlist {
				continue
			}
			grid = append(grid, algorithm.Params{"nlist": nlist, "nprobe": nprobe})
		}
	}
	return grid
}

// Build implements algorithm.Algorithm.
func (p *Partitioned) Build(ctx context.Context, train *dataset.Matrix, metric distance.Metric) (algorithm.BuildInfo, error) {
	if err := ctx.Err(); err != nil {
		return algorithm.BuildInfo{}, err
	}

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return algorithm.BuildInfo{}, &algorithm.ErrUnsupportedMetric{Algorithm: p.Name(), Metric: metric}
	}

	start := time.Now()

	vectors := train
	if metric.NeedsNormalization() {
		vectors = train.Clone()
		vectors.NormalizeL2()
	}

	nlist := p.opts.NList
	if nlist > vectors.Rows() {
		nlist = vectors.Rows()
	}

	rng := rand.New(rand.NewSource(p.opts.Seed))
	centroids, assignments := kmeans.Train(vectors.Data(), vectors.Dim(), nlist, distFunc, maxTrainIter, rng)
	nlist = len(centroids) / vectors.Dim()

	lists := make([][]uint32, nlist)
	for i, c := range assignments {
		lists[c] = append(lists[c], uint32(i))
	}

	p.metric = metric
	p.distFunc = distFunc
	p.vectors = vectors
	p.centroids = centroids
	p.lists = lists

	return algorithm.BuildInfo{
		Cardinality:    train.Rows(),
		Dimensionality: train.Dim(),
		BuildTime:      time.Since(start),
	}, nil
}

// BatchKNNSearch implements algorithm.Algorithm.
func (p *Partitioned) BatchKNNSearch(queries *dataset.Matrix, k int) (*algorithm.KNNResult, error) {
	if p.vectors == nil {
		return nil, algorithm.ErrNotBuilt
	}
	if k <= 0 || k > p.vectors.Rows() {
		return nil, fmt.Errorf("partitioned: k must be in [1, %d], got %d", p.vectors.Rows(), k)
	}

	n := queries.Rows()
	distances := make([]float32, 0, n*k)
	ids := make([]uint32, 0, n*k)

	for qi := 0; qi < n; qi++ {
		q := p.query(queries.Row(qi))
		probeOrder := p.probeOrder(q)

		h := queue.NewMax(k)
		found := 0
		for li, list := range probeOrder {
			// The kNN result shape is an invariant: when the configured
			// probes hold fewer than k vectors, keep probing further
			// partitions instead of returning a short row.
			if li >= p.opts.NProbe && found >= k {
				break
			}
			for _, id := range p.lists[list] {
				h.PushBounded(queue.Item{ID: id, Distance: p.distFunc(q, p.vectors.Row(int(id)))}, k)
				found++
			}
		}

		for _, item := range h.Drain() {
			distances = append(distances, item.Distance)
			ids = append(ids, item.ID)
		}
	}

	return algorithm.NewKNNResult(n, k, distances, ids)
}

// BatchRangeSearch implements algorithm.Algorithm.
func (p *Partitioned) BatchRangeSearch(queries *dataset.Matrix, radius float32) (*algorithm.RangeResult, error) {
	if p.vectors == nil {
		return nil, algorithm.ErrNotBuilt
	}
	if radius < 0 {
		return nil, fmt.Errorf("partitioned: radius must be >= 0, got %g", radius)
	}

	n := queries.Rows()
	offsets := make([]int, 1, n+1)
	var distances []float32
	var ids []uint32

	for qi := 0; qi < n; qi++ {
		q := p.query(queries.Row(qi))
		probeOrder := p.probeOrder(q)
		if len(probeOrder) > p.opts.NProbe {
			probeOrder = probeOrder[:p.opts.NProbe]
		}

		h := queue.NewMin(16)
		for _, list := range probeOrder {
			for _, id := range p.lists[list] {
				if d := p.distFunc(q, p.vectors.Row(int(id))); d <= radius {
					h.Push(queue.Item{ID: id, Distance: d})
				}
			}
		}
		for _, item := range h.Drain() {
			distances = append(distances, item.Distance)
			ids = append(ids, item.ID)
		}
		offsets = append(offsets, len(ids))
	}

	return algorithm.NewRangeResult(offsets, distances, ids)
}

// probeOrder returns all partition indices sorted by centroid distance.
func (p *Partitioned) probeOrder(q []float32) []int {
	dim := p.vectors.Dim()
	nlist := len(p.lists)

	h := queue.NewMin(nlist)
	for i := 0; i < nlist; i++ {
		h.Push(queue.Item{ID: uint32(i), Distance: p.distFunc(q, p.centroids[i*dim:(i+1)*dim])})
	}

	order := make([]int, 0, nlist)
	for _, item := range h.Drain() {
		order = append(order, int(item.ID))
	}
	return order
}

func (p *Partitioned) query(q []float32) []float32 {
	if p.metric.NeedsNormalization() {
		if n, ok := distance.NormalizeL2Copy(q); ok {
			return n
		}
	}
	return q
}

func paramInt(p algorithm.Params, key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("partitioned: missing parameter %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64: // JSON round-trip
		return int(n), nil
	default:
		return 0, fmt.Errorf("partitioned: parameter %q has type %T, want int", key, v)
	}
}
