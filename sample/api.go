package sample

import (
	"fmt"
)

// Measurement is a raw traffic observation supplied by an upstream loader:
// a WGS84 coordinate and the measured volume at that location. File and
// network retrieval of measurements is out of scope for this module.
type Measurement struct {
	// Lon is the longitude in degrees.
	Lon float64

	// Lat is the latitude in degrees.
	Lat float64

	// Value is the raw measured traffic volume. Units are heterogeneous
	// across sources; Normalize maps them onto a common scale.
	Value float64
}

// Point is a normalized sample point. It is immutable once constructed:
// Score is derived from the whole measurement batch and never recomputed
// in place.
type Point struct {
	// Lon is the longitude in degrees.
	Lon float64

	// Lat is the latitude in degrees.
	Lat float64

	// Raw is the original measured volume the point was built from.
	Raw float64

	// Score is the normalized traffic intensity in [0,1].
	Score float64
}

// Store owns the backing sequence of sample points. Spatial indexes refer to
// points by their position in Points() rather than holding copies, so the
// order is stable for the lifetime of the store. Duplicate coordinates are
// permitted; they represent distinct measurements at the same location.
type Store struct {
	points []Point
}

// NewStore batch-normalizes the measurements and returns a store of
// constructed points, preserving input order. Normalization is a whole-batch
// statistic, so all measurements must be supplied up front.
func NewStore(measurements []Measurement) *Store {
	raw := make([]float64, len(measurements))
	for i, m := range measurements {
		raw[i] = m.Value
	}
	scores := Normalize(raw)
	points := make([]Point, len(measurements))
	for i, m := range measurements {
		points[i] = Point{Lon: m.Lon, Lat: m.Lat, Raw: m.Value, Score: scores[i]}
	}
	return &Store{points: points}
}

// NewStoreFromPoints restores a store from already-normalized points, e.g.
// after decoding a snapshot. It validates the score invariant rather than
// re-normalizing.
func NewStoreFromPoints(points []Point) (*Store, error) {
	for i, p := range points {
		if p.Score < 0 || p.Score > 1 {
			return nil, fmt.Errorf("sample: point %d score %v outside [0,1]", i, p.Score)
		}
	}
	return &Store{points: append([]Point(nil), points...)}, nil
}

// Len returns the number of points in the store.
func (s *Store) Len() int { return len(s.points) }

// Points returns the backing point sequence. Callers must treat it as
// read-only; index refs are positions in this slice.
func (s *Store) Points() []Point { return s.points }

// At returns the point at position i.
func (s *Store) At(i int) Point { return s.points[i] }

// Bounds is an axis-aligned service-area rectangle in degrees. It is
// advisory: queries outside the bounds are legal and resolve through the
// usual distance cutoff.
type Bounds struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Contains reports whether the coordinate lies within the bounds.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.West && lon <= b.East && lat >= b.South && lat <= b.North
}
