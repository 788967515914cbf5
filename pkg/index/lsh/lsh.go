package lsh

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/felipevidias/imgsim/pkg/core/distance"
	"github.com/felipevidias/imgsim/pkg/core/document"
	"github.com/felipevidias/imgsim/pkg/index"
)

var (
	// ErrInvalidDimension is returned when the requested dimensionality is less than 1
	ErrInvalidDimension = errors.New("dimensions must be greater than 0")

	// ErrInvalidHashes is returned when the hash function count is less than 1
	ErrInvalidHashes = errors.New("hash count must be greater than 0")

	// ErrInvalidWidth is returned when the bucket width is not positive
	ErrInvalidWidth = errors.New("bucket width must be greater than 0")
)

// LSHConfig holds the construction parameters for the LSH index
type LSHConfig struct {
	Hashes      int         // Number of random projections / hash functions (default: 16)
	Width       float32     // Bucket width each projected value is discretized by (default: 0.5)
	Rand        *rand.Rand  // Source for projection sampling (default: seeded from the global source)
	Projections [][]float32 // Fixed projection vectors; when set, Hashes and Rand are ignored
}

// DefaultLSHConfig returns the default configuration for the LSH index
func DefaultLSHConfig() LSHConfig {
	return LSHConfig{
		Hashes: 16,
		Width:  0.5,
	}
}

// LSHIndex implements a locality-sensitive hashing index. Each document is
// filed under a composite key derived from random projections of its vector;
// a search examines only the bucket matching the query's own key and never
// probes neighboring buckets, so a query may legitimately come back empty.
// The achievable result count depends on hash collisions, not on the
// requested k.
//
// An LSHIndex is not safe for concurrent mutation. Concurrent read-only
// searches against a finished index are safe since Search never mutates.
type LSHIndex struct {
	buckets     map[string][]*document.Document // Composite key to bucket
	projections [][]float32                     // Fixed for the index lifetime
	dimensions  int
	width       float32
	size        int
}

// NewLSHIndex creates an LSH index over vectors of the given dimensionality.
// If config is nil, DefaultLSHConfig is used. Projections are sampled
// coordinate-wise from a standard normal distribution once at construction;
// supplying config.Rand makes the sampling reproducible, and supplying
// config.Projections bypasses sampling entirely.
func NewLSHIndex(dimensions int, config *LSHConfig) (*LSHIndex, error) {
	cfg := DefaultLSHConfig()
	if config != nil {
		cfg = *config
	}

	if dimensions < 1 {
		return nil, ErrInvalidDimension
	}
	if cfg.Width <= 0 {
		return nil, ErrInvalidWidth
	}

	var projections [][]float32
	if len(cfg.Projections) > 0 {
		projections = make([][]float32, len(cfg.Projections))
		for i, p := range cfg.Projections {
			if len(p) != dimensions {
				return nil, &index.ErrDimensionMismatch{Expected: dimensions, Actual: len(p)}
			}
			projections[i] = make([]float32, dimensions)
			copy(projections[i], p)
		}
	} else {
		if cfg.Hashes < 1 {
			return nil, ErrInvalidHashes
		}
		rng := cfg.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(rand.Int63()))
		}
		projections = make([][]float32, cfg.Hashes)
		for i := range projections {
			p := make([]float32, dimensions)
			for j := range p {
				p[j] = float32(rng.NormFloat64())
			}
			projections[i] = p
		}
	}

	return &LSHIndex{
		buckets:     make(map[string][]*document.Document),
		projections: projections,
		dimensions:  dimensions,
		width:       cfg.Width,
	}, nil
}

// Name returns the name of the index
func (idx *LSHIndex) Name() string {
	return "lsh"
}

// HashKey derives the composite bucket key for a vector: one integer per
// projection, floor(dot(vec, projection) / width). Negative projected values
// floor toward negative infinity, so -0.3 and 0.3 land in different buckets.
func (idx *LSHIndex) HashKey(vec []float32) []int {
	key := make([]int, len(idx.projections))
	for i, p := range idx.projections {
		key[i] = int(math.Floor(float64(distance.Dot(vec, p)) / float64(idx.width)))
	}
	return key
}

// bucketKey encodes a composite hash key as a map key.
func bucketKey(key []int) string {
	var sb strings.Builder
	for i, v := range key {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// Insert files a copy of the document under the bucket derived from its
// vector. Bucket membership is decided here and never recomputed.
func (idx *LSHIndex) Insert(doc *document.Document) error {
	if doc.Dimensions() != idx.dimensions {
		return &index.ErrDimensionMismatch{Expected: idx.dimensions, Actual: doc.Dimensions()}
	}

	key := bucketKey(idx.HashKey(doc.Features))
	idx.buckets[key] = append(idx.buckets[key], doc.Copy()) // Store a copy of the document
	idx.size++

	return nil
}

// Search performs a k-nearest neighbor search restricted to the bucket
// matching the query's composite key. A missing or empty bucket yields an
// empty result, not an error.
func (idx *LSHIndex) Search(query []float32, k int) (index.Results, error) {
	if k < 0 {
		return nil, index.ErrInvalidK
	}

	// An empty index answers every query with an empty result
	if idx.size == 0 {
		return index.Results{}, nil
	}

	if len(query) != idx.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: idx.dimensions, Actual: len(query)}
	}

	if k == 0 {
		return index.Results{}, nil
	}

	bucket := idx.buckets[bucketKey(idx.HashKey(query))]
	if len(bucket) == 0 {
		return index.Results{}, nil
	}

	// Calculate distances to the documents in this bucket only
	results := make(index.Results, 0, len(bucket))
	for _, doc := range bucket {
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
func (idx *LSHIndex) Size() int {
	return idx.size
}

// Buckets returns the number of non-empty buckets
func (idx *LSHIndex) Buckets() int {
	return len(idx.buckets)
}
