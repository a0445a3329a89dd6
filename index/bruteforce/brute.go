package bruteforce

import (
	"math"
	"sort"

	"github.com/snowspace/trafficscore/index"
	"github.com/snowspace/trafficscore/sample"
)

// Index is a simple brute-force spatial index over sample points.
type Index struct {
	points []sample.Point
}

// Build copies the point sequence. The copy keeps the index immutable even
// if the caller's slice is later reused.
func (i *Index) Build(points []sample.Point) error {
	i.points = append([]sample.Point(nil), points...)
	return nil
}

// Nearest returns up to k points within maxDistance, ascending by distance.
// Distance ties keep input order, so results are deterministic.
func (i *Index) Nearest(lon, lat float64, k int, maxDistance float64) ([]index.Neighbor, error) {
	if err := index.ValidateQuery(k, maxDistance); err != nil {
		return nil, err
	}
	if len(i.points) == 0 {
		return nil, nil
	}
	candidates := make([]index.Neighbor, 0, len(i.points))
	for ref, p := range i.points {
		dx := p.Lon - lon
		dy := p.Lat - lat
		d := math.Sqrt(dx*dx + dy*dy)
		if d > maxDistance {
			continue
		}
		candidates = append(candidates, index.Neighbor{Ref: ref, Distance: d})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Distance < candidates[b].Distance
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

// MarshalBinary serializes the point set using the shared snapshot encoding.
func (i *Index) MarshalBinary() ([]byte, error) {
	return sample.EncodePoints(i.points)
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	points, err := sample.DecodePoints(data)
	if err != nil {
		return err
	}
	return i.Build(points)
}

// Ensure Index satisfies the shared contract.
var _ index.Index = (*Index)(nil)
