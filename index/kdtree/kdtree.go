package kdtree

import (
	"container/heap"
	"math"
	"sort"

	"github.com/snowspace/trafficscore/index"
	"github.com/snowspace/trafficscore/sample"
)

const (
	axisLon = 0
	axisLat = 1
)

// node is an arena entry: a position into the point sequence, the splitting
// axis, and arena positions of the child subtrees (-1 when absent). Nodes
// hold no point copies, so the tree can never desynchronize from the store.
type node struct {
	ref   int32
	left  int32
	right int32
	axis  int8
}

// Index is a balanced 2-D k-d tree over sample coordinates. Longitude splits
// at even depth, latitude at odd depth. Once built it is immutable and safe
// for concurrent queries.
type Index struct {
	points []sample.Point
	nodes  []node
	root   int32
}

// Build constructs the tree by recursive median split. Ties on the median
// value are broken by input position, so identical inputs always produce an
// identical tree shape.
func (i *Index) Build(points []sample.Point) error {
	i.points = append([]sample.Point(nil), points...)
	i.nodes = make([]node, 0, len(points))
	i.root = -1
	if len(points) == 0 {
		return nil
	}
	refs := make([]int32, len(points))
	for j := range refs {
		refs[j] = int32(j)
	}
	i.root = i.build(refs, 0)
	return nil
}

func (i *Index) build(refs []int32, depth int) int32 {
	if len(refs) == 0 {
		return -1
	}
	axis := int8(depth % 2)
	sort.Slice(refs, func(a, b int) bool {
		va := axisValue(i.points[refs[a]], axis)
		vb := axisValue(i.points[refs[b]], axis)
		if va != vb {
			return va < vb
		}
		return refs[a] < refs[b]
	})
	mid := len(refs) / 2
	pos := int32(len(i.nodes))
	i.nodes = append(i.nodes, node{ref: refs[mid], axis: axis, left: -1, right: -1})
	left := i.build(refs[:mid], depth+1)
	right := i.build(refs[mid+1:], depth+1)
	i.nodes[pos].left = left
	i.nodes[pos].right = right
	return pos
}

func axisValue(p sample.Point, axis int8) float64 {
	if axis == axisLon {
		return p.Lon
	}
	return p.Lat
}

// Nearest runs a branch-and-bound kNN traversal: descend toward the
// half-space containing the query first, keep a bounded max-heap of the k
// best candidates, and visit the sibling subtree only when the splitting
// hyperplane is closer than the current bound. Distances are planar
// Euclidean in degree space, not great-circle; the service area is small
// enough that degree-distance ordering matches ground-distance ordering.
func (i *Index) Nearest(lon, lat float64, k int, maxDistance float64) ([]index.Neighbor, error) {
	if err := index.ValidateQuery(k, maxDistance); err != nil {
		return nil, err
	}
	if i.root < 0 {
		return nil, nil
	}
	h := make(neighbors, 0, k)
	i.search(i.root, lon, lat, k, maxDistance, &h)
	out := make([]index.Neighbor, len(h))
	for j := len(out) - 1; j >= 0; j-- {
		out[j] = heap.Pop(&h).(index.Neighbor)
	}
	return out, nil
}

func (i *Index) search(pos int32, lon, lat float64, k int, maxDistance float64, h *neighbors) {
	n := i.nodes[pos]
	p := i.points[n.ref]
	dx := p.Lon - lon
	dy := p.Lat - lat
	d := math.Sqrt(dx*dx + dy*dy)
	if d <= maxDistance {
		if h.Len() < k {
			heap.Push(h, index.Neighbor{Ref: int(n.ref), Distance: d})
		} else if d < (*h)[0].Distance {
			heap.Pop(h)
			heap.Push(h, index.Neighbor{Ref: int(n.ref), Distance: d})
		}
	}
	delta := lon - p.Lon
	if n.axis == axisLat {
		delta = lat - p.Lat
	}
	near, far := n.left, n.right
	if delta >= 0 {
		near, far = n.right, n.left
	}
	if near >= 0 {
		i.search(near, lon, lat, k, maxDistance, h)
	}
	bound := maxDistance
	if h.Len() == k && (*h)[0].Distance < bound {
		bound = (*h)[0].Distance
	}
	if far >= 0 && math.Abs(delta) <= bound {
		i.search(far, lon, lat, k, maxDistance, h)
	}
}

// MarshalBinary serializes the point set using the shared snapshot encoding.
// The tree itself is not encoded; it is rebuilt deterministically on load.
func (i *Index) MarshalBinary() ([]byte, error) {
	return sample.EncodePoints(i.points)
}

// UnmarshalBinary restores the point set and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	points, err := sample.DecodePoints(data)
	if err != nil {
		return err
	}
	return i.Build(points)
}

// Ensure Index satisfies the shared contract.
var _ index.Index = (*Index)(nil)
