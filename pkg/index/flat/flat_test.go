package flat

import (
	"errors"
	"testing"

	"github.com/felipevidias/imgsim/pkg/core/document"
	"github.com/felipevidias/imgsim/pkg/index"
)

func TestNewFlatIndex(t *testing.T) {
	idx := NewFlatIndex()

	if idx.Name() != "flat" {
		t.Errorf("Expected index name to be 'flat', got %s", idx.Name())
	}

	if idx.Size() != 0 {
		t.Errorf("Expected empty index, got %d documents", idx.Size())
	}
}

func TestInsert(t *testing.T) {
	idx := NewFlatIndex()

	// Insert a document
	d1 := document.New(1, []float32{1.0, 2.0, 3.0}, "one.jpg")
	if err := idx.Insert(d1); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if idx.Size() != 1 {
		t.Errorf("Expected 1 document, got %d", idx.Size())
	}

	// Check that the stored document is a copy
	if idx.docs[0] == d1 {
		t.Errorf("Document was not copied on insert")
	}
	for i, val := range d1.Features {
		if idx.docs[0].Features[i] != val {
			t.Errorf("Stored value at index %d is %f, expected %f", i, idx.docs[0].Features[i], val)
		}
	}

	// Insert another document with matching dimensionality
	d2 := document.New(2, []float32{4.0, 5.0, 6.0}, "two.jpg")
	if err := idx.Insert(d2); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if idx.Size() != 2 {
		t.Errorf("Expected 2 documents, got %d", idx.Size())
	}

	// A document with a different dimensionality must be rejected
	bad := document.New(3, []float32{1.0, 2.0}, "bad.jpg")
	err := idx.Insert(bad)

	var mismatch *index.ErrDimensionMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected ErrDimensionMismatch, got %v", err)
	}
	if mismatch.Expected != 3 || mismatch.Actual != 2 {
		t.Errorf("Expected mismatch 3/2, got %d/%d", mismatch.Expected, mismatch.Actual)
	}

	// A rejected insert must not change the index
	if idx.Size() != 2 {
		t.Errorf("Expected 2 documents after rejected insert, got %d", idx.Size())
	}
}

func TestSearch(t *testing.T) {
	idx := NewFlatIndex()

	// Insert documents with known distance from the origin
	docs := []*document.Document{
		document.New(1, []float32{1.0, 0.0, 0.0}, "d1"), // Distance to origin: 1.0
		document.New(2, []float32{2.0, 0.0, 0.0}, "d2"), // Distance to origin: 2.0
		document.New(3, []float32{3.0, 0.0, 0.0}, "d3"), // Distance to origin: 3.0
	}

	for _, d := range docs {
		if err := idx.Insert(d); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	query := []float32{0.0, 0.0, 0.0}

	// Search with k = 2
	results, err := idx.Search(query, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("Expected 2 search results, got %d", len(results))
	}

	// Check that the results are sorted by distance
	if results[0].Distance > results[1].Distance {
		t.Errorf("Results not sorted by distance")
	}

	// Check that the nearest document comes first
	if results[0].Doc.ID != 1 {
		t.Errorf("Expected document 1 to be closest, got %d", results[0].Doc.ID)
	}

	// k larger than the collection returns exactly the collection size
	results, err = idx.Search(query, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 search results, got %d", len(results))
	}

	// k = 0 returns an empty result, not an error
	results, err = idx.Search(query, 0)
	if err != nil {
		t.Fatalf("Search with k=0 failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result for k=0, got %d", len(results))
	}

	// Negative k is rejected
	if _, err = idx.Search(query, -1); !errors.Is(err, index.ErrInvalidK) {
		t.Errorf("Expected ErrInvalidK, got %v", err)
	}

	// A mismatched query dimensionality is rejected
	_, err = idx.Search([]float32{0.0, 0.0}, 1)
	var mismatch *index.ErrDimensionMismatch
	if !errors.As(err, &mismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewFlatIndex()

	// An empty index returns an empty result for any query and any k >= 0
	for _, k := range []int{0, 1, 5} {
		results, err := idx.Search([]float32{1.0, 2.0}, k)
		if err != nil {
			t.Fatalf("Search on empty index failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected empty result for k=%d, got %d results", k, len(results))
		}
	}
}

func TestSearchNearestFirstScenario(t *testing.T) {
	idx := NewFlatIndex()

	docs := []*document.Document{
		document.New(1, []float32{0.0, 0.0}, "A"),
		document.New(2, []float32{10.0, 10.0}, "B"),
		document.New(3, []float32{1.0, 1.0}, "C"),
	}
	for _, d := range docs {
		if err := idx.Insert(d); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	results, err := idx.Search([]float32{0.0, 0.0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	if results[0].Doc.Name != "A" || results[1].Doc.Name != "C" {
		t.Errorf("Expected [A, C], got [%s, %s]", results[0].Doc.Name, results[1].Doc.Name)
	}

	if results[0].Distance != 0 {
		t.Errorf("Expected exact match at distance 0, got %f", results[0].Distance)
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	idx := NewFlatIndex()

	// Three documents at the same distance from the query
	for id := 1; id <= 3; id++ {
		d := document.New(id, []float32{1.0, 0.0}, "")
		if err := idx.Insert(d); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	results, err := idx.Search([]float32{0.0, 0.0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	for i, r := range results {
		if r.Doc.ID != i+1 {
			t.Errorf("Expected tie at position %d to keep insertion order (ID %d), got ID %d", i, i+1, r.Doc.ID)
		}
	}
}

func TestSearchIdempotent(t *testing.T) {
	idx := NewFlatIndex()

	for id := 1; id <= 10; id++ {
		d := document.Random(id, 4, nil)
		if err := idx.Insert(d); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	query := []float32{0.5, 0.5, 0.5, 0.5}

	first, err := idx.Search(query, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	second, err := idx.Search(query, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Repeated search returned %d then %d results", len(first), len(second))
	}
	for i := range first {
		if first[i].Doc.ID != second[i].Doc.ID || first[i].Distance != second[i].Distance {
			t.Errorf("Repeated search diverged at position %d: (%d, %f) vs (%d, %f)",
				i, first[i].Doc.ID, first[i].Distance, second[i].Doc.ID, second[i].Distance)
		}
	}
}

func TestSearchReturnsCopies(t *testing.T) {
	idx := NewFlatIndex()

	if err := idx.Insert(document.New(1, []float32{1.0, 2.0}, "one")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	results, err := idx.Search([]float32{0.0, 0.0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	// Mutating a result must not corrupt the index
	results[0].Doc.Features[0] = 99.0

	again, err := idx.Search([]float32{0.0, 0.0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if again[0].Doc.Features[0] != 1.0 {
		t.Errorf("Index state was corrupted through a returned result")
	}
}
