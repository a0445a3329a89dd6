package scorer

import "log/slog"

// Kind selects the spatial index implementation backing an Engine.
type Kind string

const (
	// KindAuto picks bruteforce below autoKDTreeMinPoints and kdtree above.
	KindAuto Kind = "auto"
	// KindKDTree forces the k-d tree index.
	KindKDTree Kind = "kdtree"
	// KindBrute forces the brute-force index.
	KindBrute Kind = "brute"
)

// autoKDTreeMinPoints is the point count above which KindAuto builds a k-d
// tree. Below it a linear scan beats the tree's traversal overhead.
const autoKDTreeMinPoints = 64

const (
	// DefaultNeighbors is the default neighbor count per query.
	DefaultNeighbors = 5
	// DefaultMaxDistance is the default search radius in degrees.
	DefaultMaxDistance = 0.01
)

type options struct {
	neighbors   int
	maxDistance float64
	kind        Kind
	parallelism int
	cacheSize   int
	logger      *slog.Logger
}

// Option configures an Engine at construction time.
type Option func(*options)

// WithNeighbors sets the default neighbor count k used by ScoreOne and
// BatchScore. Must be >= 1.
func WithNeighbors(k int) Option {
	return func(o *options) { o.neighbors = k }
}

// WithMaxDistance sets the default search radius in degrees. Must be > 0.
func WithMaxDistance(d float64) Option {
	return func(o *options) { o.maxDistance = d }
}

// WithIndexKind overrides the automatic index selection.
func WithIndexKind(kind Kind) Option {
	return func(o *options) { o.kind = kind }
}

// WithParallelism sets the number of workers BatchScore shards coordinates
// across. Values <= 1 keep the batch sequential. Queries are read-only
// against the immutable index, so workers share no mutable state.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithResultCache enables an LRU cache of size entries over per-coordinate
// results. Useful when hosts repeatedly score the same vertices.
func WithResultCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

// WithLogger sets the logger used for diagnostics. The engine is silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
