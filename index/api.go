package index

import (
	"errors"
	"fmt"

	"github.com/snowspace/trafficscore/sample"
)

// ErrInvalidConfig reports query parameters that violate the index contract
// (k < 1 or a non-positive distance bound). Callers can detect it with
// errors.Is; invalid parameters are rejected, never silently clamped.
var ErrInvalidConfig = errors.New("invalid configuration")

// Neighbor is a single kNN result: the position of the matched point in the
// point store's backing sequence and its planar degree-space distance from
// the query coordinate.
type Neighbor struct {
	Ref      int
	Distance float64
}

// Index defines a generic spatial index with basic lifecycle methods.
// It enables building from sample points, bounded kNN queries, and
// binary serialization for persistence.
type Index interface {
	// Build constructs the index from the given points. The index stores
	// positions into the slice, not copies of the caller's store; it is
	// rebuilt, never patched, when the point set changes.
	Build(points []sample.Point) error

	// Nearest runs a kNN search around the query coordinate and returns up
	// to k neighbors in ascending distance order, excluding points farther
	// than maxDistance degrees. An empty index yields an empty result and a
	// nil error; callers distinguish "no data" from a zero score.
	Nearest(lon, lat float64, k int, maxDistance float64) ([]Neighbor, error)

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}

// ValidateQuery rejects out-of-contract query parameters. Both index
// implementations and the scoring engine call it before touching the tree.
func ValidateQuery(k int, maxDistance float64) error {
	if k < 1 {
		return fmt.Errorf("index: k must be >= 1, got %d: %w", k, ErrInvalidConfig)
	}
	if maxDistance <= 0 {
		return fmt.Errorf("index: max distance must be > 0, got %v: %w", maxDistance, ErrInvalidConfig)
	}
	return nil
}
