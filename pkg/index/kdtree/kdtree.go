package kdtree

import (
	"container/heap"
	"errors"

	"github.com/felipevidias/imgsim/pkg/core/distance"
	"github.com/felipevidias/imgsim/pkg/core/document"
	"github.com/felipevidias/imgsim/pkg/index"
)

// ErrInvalidDimension is returned when the requested dimensionality is less than 1
var ErrInvalidDimension = errors.New("dimensions must be greater than 0")

// node is a single tree node owning one document and up to two subtrees
type node struct {
	doc   *document.Document
	left  *node
	right *node
}

// KDTree implements a k-dimensional binary partition tree index. At depth d
// the tree splits on axis d mod k: documents whose value at that axis is
// strictly less than the node's go left, all others go right. Insertion order
// fully determines the tree shape; no rebalancing is performed, so sorted
// input degrades to a linked list and search to a full scan.
//
// A KDTree is not safe for concurrent mutation. Concurrent read-only searches
// against a finished tree are safe since Search never mutates.
type KDTree struct {
	root       *node
	dimensions int
	size       int
}

// NewKDTree creates an empty partition tree over vectors of the given
// dimensionality.
func NewKDTree(dimensions int) (*KDTree, error) {
	if dimensions < 1 {
		return nil, ErrInvalidDimension
	}
	return &KDTree{dimensions: dimensions}, nil
}

// Name returns the name of the index
func (idx *KDTree) Name() string {
	return "kdtree"
}

// Insert places a copy of the document at the leaf position determined by the
// axis-split rule.
func (idx *KDTree) Insert(doc *document.Document) error {
	if doc.Dimensions() != idx.dimensions {
		return &index.ErrDimensionMismatch{Expected: idx.dimensions, Actual: doc.Dimensions()}
	}

	idx.root = idx.insert(idx.root, doc.Copy(), 0) // Store a copy of the document
	idx.size++

	return nil
}

func (idx *KDTree) insert(n *node, doc *document.Document, depth int) *node {
	if n == nil {
		return &node{doc: doc}
	}

	axis := depth % idx.dimensions
	if doc.Features[axis] < n.doc.Features[axis] {
		n.left = idx.insert(n.left, doc, depth+1)
	} else {
		n.right = idx.insert(n.right, doc, depth+1)
	}

	return n
}

// Search performs a branch-and-bound k-nearest neighbor search. It keeps the
// best k candidates seen so far in a worst-first heap and prunes a subtree
// only when the candidate set is full and the splitting hyperplane lies
// farther away than the worst held candidate.
func (idx *KDTree) Search(query []float32, k int) (index.Results, error) {
	if k < 0 {
		return nil, index.ErrInvalidK
	}

	// An empty index answers every query with an empty result
	if idx.root == nil {
		return index.Results{}, nil
	}

	if len(query) != idx.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: idx.dimensions, Actual: len(query)}
	}

	if k == 0 {
		return index.Results{}, nil
	}

	best := &candidates{}
	heap.Init(best)
	idx.search(idx.root, query, k, 0, best)

	// The heap is worst-first; popping back to front yields nearest-first
	results := make(index.Results, best.Len())
	for i := len(results) - 1; i >= 0; i-- {
		r := heap.Pop(best).(index.Result)
		r.Doc = r.Doc.Copy() // Return a copy to prevent modification
		results[i] = r
	}

	return results, nil
}

func (idx *KDTree) search(n *node, query []float32, k, depth int, best *candidates) {
	if n == nil {
		return
	}

	// Offer the node's document to the candidate set: add unconditionally
	// while under capacity, otherwise replace the worst candidate only on a
	// strict improvement.
	dist := distance.Euclidean(query, n.doc.Features)
	if best.Len() < k {
		heap.Push(best, index.Result{Doc: n.doc, Distance: dist})
	} else if dist < (*best)[0].Distance {
		heap.Pop(best)
		heap.Push(best, index.Result{Doc: n.doc, Distance: dist})
	}

	axis := depth % idx.dimensions
	diff := query[axis] - n.doc.Features[axis]

	near, far := n.left, n.right
	if diff >= 0 {
		near, far = n.right, n.left
	}

	idx.search(near, query, k, depth+1, best)

	// Visit the far side only while the candidate set is not full yet or the
	// splitting hyperplane is closer than the worst held candidate. The first
	// clause is required: without it, subtrees holding valid candidates would
	// be skipped before k have been found.
	if best.Len() < k || abs(diff) < (*best)[0].Distance {
		idx.search(far, query, k, depth+1, best)
	}
}

// Size returns the number of documents in the index
func (idx *KDTree) Size() int {
	return idx.size
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
