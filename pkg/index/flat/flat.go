package flat

import (
	"github.com/felipevidias/imgsim/pkg/core/distance"
	"github.com/felipevidias/imgsim/pkg/core/document"
	"github.com/felipevidias/imgsim/pkg/index"
)

// FlatIndex implements a brute-force nearest neighbor search index. Documents
// are kept in insertion order and every query scans the whole collection,
// which makes this the exact-accuracy baseline for the other structures.
//
// A FlatIndex is not safe for concurrent mutation. Concurrent read-only
// searches against a finished index are safe since Search never mutates.
type FlatIndex struct {
	docs      []*document.Document // Documents in insertion order
	dimension int                  // Fixed by the first insert
}

// NewFlatIndex creates an empty exhaustive index. The vector dimensionality
// is learned from the first inserted document.
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

// Name returns the name of the index
func (idx *FlatIndex) Name() string {
	return "flat"
}

// Insert appends a copy of the document to the collection. The first insert
// fixes the dimensionality; every later document must match it.
func (idx *FlatIndex) Insert(doc *document.Document) error {
	if len(idx.docs) == 0 {
		idx.dimension = doc.Dimensions()
	} else if doc.Dimensions() != idx.dimension {
		return &index.ErrDimensionMismatch{Expected: idx.dimension, Actual: doc.Dimensions()}
	}

	idx.docs = append(idx.docs, doc.Copy()) // Store a copy of the document

	return nil
}

// Search performs a k-nearest neighbor search over the whole collection.
// Equal-distance results keep insertion order, so repeated runs over the same
// insertion sequence return identical rankings.
func (idx *FlatIndex) Search(query []float32, k int) (index.Results, error) {
	if k < 0 {
		return nil, index.ErrInvalidK
	}

	// An empty index answers every query with an empty result
	if len(idx.docs) == 0 {
		return index.Results{}, nil
	}

	if len(query) != idx.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: idx.dimension, Actual: len(query)}
	}

	if k == 0 {
		return index.Results{}, nil
	}

	// Calculate distances to all documents
	results := make(index.Results, 0, len(idx.docs))
	for _, doc := range idx.docs {
		results = append(results, index.Result{
			Doc:      doc.Copy(), // Return a copy to prevent modification
			Distance: distance.Euclidean(query, doc.Features),
		})
	}

	// Sort results by distance
	results.Sort()

	// Return top k results
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Size returns the number of documents in the index
func (idx *FlatIndex) Size() int {
	return len(idx.docs)
}
