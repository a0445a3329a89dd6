package kdtree

import "github.com/snowspace/trafficscore/index"

// neighbors implements heap.Interface sorted by descending distance
// (max-heap), bounding the candidate set to the k best seen so far.
type neighbors []index.Neighbor

func (h neighbors) Len() int           { return len(h) }
func (h neighbors) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighbors) Push(x interface{}) {
	*h = append(*h, x.(index.Neighbor))
}

func (h *neighbors) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
