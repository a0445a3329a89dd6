package scorer

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/snowspace/trafficscore/index"
	"github.com/snowspace/trafficscore/index/bruteforce"
	"github.com/snowspace/trafficscore/index/kdtree"
	"github.com/snowspace/trafficscore/sample"
)

// epsilon guards inverse-distance weights against division by zero when a
// query coincides exactly with a sample point.
const epsilon = 1e-9

// Engine scores coordinates against an immutable point store and spatial
// index. Hosts construct one engine per dataset and share it freely:
// queries are read-only and need no locking.
type Engine struct {
	store       *sample.Store
	idx         index.Index
	neighbors   int
	maxDistance float64
	parallelism int
	cache       *lru.Cache[cacheKey, float64]
	logger      *slog.Logger
}

type cacheKey struct {
	lon         float64
	lat         float64
	k           int
	maxDistance float64
}

// New builds a spatial index over the store's points and returns an engine.
// Invalid option values are surfaced immediately, never defaulted silently.
func New(store *sample.Store, opts ...Option) (*Engine, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	kind := resolveKind(o.kind, store.Len())
	idx := newIndex(kind)
	if err := idx.Build(store.Points()); err != nil {
		return nil, err
	}
	if o.logger != nil {
		o.logger.Debug("scorer: index built", "kind", kind, "points", store.Len())
	}
	return newEngine(store, idx, o)
}

// NewWithIndex wraps an already-built index, e.g. one restored from a cache
// snapshot. The index must have been built over store.Points().
func NewWithIndex(store *sample.Store, idx index.Index, opts ...Option) (*Engine, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return newEngine(store, idx, o)
}

func resolveOptions(opts []Option) (*options, error) {
	o := &options{
		neighbors:   DefaultNeighbors,
		maxDistance: DefaultMaxDistance,
		kind:        KindAuto,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := index.ValidateQuery(o.neighbors, o.maxDistance); err != nil {
		return nil, err
	}
	switch o.kind {
	case KindAuto, KindKDTree, KindBrute:
	default:
		return nil, fmt.Errorf("scorer: unknown index kind %q: %w", o.kind, index.ErrInvalidConfig)
	}
	if o.parallelism < 0 {
		return nil, fmt.Errorf("scorer: parallelism must be >= 0, got %d: %w", o.parallelism, index.ErrInvalidConfig)
	}
	if o.cacheSize < 0 {
		return nil, fmt.Errorf("scorer: result cache size must be >= 0, got %d: %w", o.cacheSize, index.ErrInvalidConfig)
	}
	return o, nil
}

func resolveKind(kind Kind, points int) Kind {
	if kind != KindAuto {
		return kind
	}
	if points >= autoKDTreeMinPoints {
		return KindKDTree
	}
	return KindBrute
}

func newIndex(kind Kind) index.Index {
	if kind == KindBrute {
		return &bruteforce.Index{}
	}
	return &kdtree.Index{}
}

func newEngine(store *sample.Store, idx index.Index, o *options) (*Engine, error) {
	e := &Engine{
		store:       store,
		idx:         idx,
		neighbors:   o.neighbors,
		maxDistance: o.maxDistance,
		parallelism: o.parallelism,
		logger:      o.logger,
	}
	if o.cacheSize > 0 {
		c, err := lru.New[cacheKey, float64](o.cacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = c
	}
	return e, nil
}

// Store returns the engine's point store.
func (e *Engine) Store() *sample.Store { return e.store }

// Index returns the engine's spatial index, e.g. for snapshot persistence.
func (e *Engine) Index() index.Index { return e.idx }

// ScoreOne returns the interpolated traffic intensity in [0,1] for the
// coordinate using the engine's default k and search radius. A coordinate
// with no indexed points within the radius scores 0.0: no nearby data is
// read as no measured activity, not as a failure.
func (e *Engine) ScoreOne(lon, lat float64) (float64, error) {
	return e.score(lon, lat, e.neighbors, e.maxDistance)
}

// ScoreOneK is ScoreOne with per-call k and search radius.
func (e *Engine) ScoreOneK(lon, lat float64, k int, maxDistance float64) (float64, error) {
	return e.score(lon, lat, k, maxDistance)
}

// BatchScore scores each coordinate independently and returns one score per
// input in input order. It never short-circuits: a coordinate without
// nearby data contributes 0.0 and scoring continues.
func (e *Engine) BatchScore(coords [][2]float64) ([]float64, error) {
	return e.batch(coords, e.neighbors, e.maxDistance)
}

// BatchScoreK is BatchScore with per-call k and search radius.
func (e *Engine) BatchScoreK(coords [][2]float64, k int, maxDistance float64) ([]float64, error) {
	return e.batch(coords, k, maxDistance)
}

func (e *Engine) batch(coords [][2]float64, k int, maxDistance float64) ([]float64, error) {
	if err := index.ValidateQuery(k, maxDistance); err != nil {
		return nil, err
	}
	out := make([]float64, len(coords))
	if e.parallelism <= 1 || len(coords) < 2 {
		for i, c := range coords {
			s, err := e.score(c[0], c[1], k, maxDistance)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}

	workers := e.parallelism
	if workers > len(coords) {
		workers = len(coords)
	}
	// Workers write to index-addressed slots, so output order matches input
	// order regardless of scheduling.
	jobs := make(chan int)
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				s, err := e.score(coords[i][0], coords[i][1], k, maxDistance)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					continue
				}
				out[i] = s
			}
		}()
	}
	for i := range coords {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (e *Engine) score(lon, lat float64, k int, maxDistance float64) (float64, error) {
	if e.cache == nil {
		return e.interpolate(lon, lat, k, maxDistance)
	}
	key := cacheKey{lon: lon, lat: lat, k: k, maxDistance: maxDistance}
	if v, ok := e.cache.Get(key); ok {
		return v, nil
	}
	v, err := e.interpolate(lon, lat, k, maxDistance)
	if err != nil {
		return 0, err
	}
	e.cache.Add(key, v)
	return v, nil
}

// interpolate computes the inverse-distance-weighted average of the k
// nearest scores. The result is a convex combination of values in [0,1].
func (e *Engine) interpolate(lon, lat float64, k int, maxDistance float64) (float64, error) {
	neighbors, err := e.idx.Nearest(lon, lat, k, maxDistance)
	if err != nil {
		return 0, err
	}
	if len(neighbors) == 0 {
		return 0, nil
	}
	var weightSum, acc float64
	for _, n := range neighbors {
		w := 1 / (n.Distance + epsilon)
		weightSum += w
		acc += w * e.store.At(n.Ref).Score
	}
	s := acc / weightSum
	switch {
	case s < 0:
		s = 0
	case s > 1:
		s = 1
	}
	return s, nil
}
