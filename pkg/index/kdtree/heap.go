package kdtree

import "github.com/felipevidias/imgsim/pkg/index"

// candidates implements heap.Interface over search results ordered by
// descending distance (max-heap), so the worst candidate held is always on
// top and can be evicted first.
type candidates []index.Result

func (h candidates) Len() int           { return len(h) }
func (h candidates) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h candidates) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidates) Push(x any) {
	*h = append(*h, x.(index.Result))
}

func (h *candidates) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
