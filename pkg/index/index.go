package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/felipevidias/imgsim/pkg/core/document"
)

// ErrInvalidK is returned when a negative result width is requested
var ErrInvalidK = errors.New("k must not be negative")

// ErrDimensionMismatch is a named error type for dimension mismatch
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Result represents a single search result: a stored document and its
// distance from the query
type Result struct {
	Doc      *document.Document // The matched document
	Distance float32            // Distance from the query vector
}

// Results is a slice of Result ordered nearest-first
type Results []Result

// Index is the interface that all retrieval structures must satisfy
type Index interface {
	// Name returns the name of the index
	Name() string

	// Insert adds a document to the index
	Insert(doc *document.Document) error

	// Search performs a k-nearest neighbor search. It returns at most k
	// results ordered nearest-first. Searching an empty index yields an
	// empty result set, not an error.
	Search(query []float32, k int) (Results, error)

	// Size returns the number of documents in the index
	Size() int
}

// Sort orders results by distance (ascending). The sort is stable so
// equal-distance results keep their prior order.
func (r Results) Sort() {
	sort.SliceStable(r, func(i, j int) bool {
		return r[i].Distance < r[j].Distance
	})
}
