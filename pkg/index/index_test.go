package index

import (
	"testing"

	"github.com/felipevidias/imgsim/pkg/core/document"
)

func TestResultsSort(t *testing.T) {
	results := Results{
		{Doc: document.New(1, []float32{1}, ""), Distance: 3.0},
		{Doc: document.New(2, []float32{1}, ""), Distance: 1.0},
		{Doc: document.New(3, []float32{1}, ""), Distance: 2.0},
	}

	results.Sort()

	expected := []int{2, 3, 1}
	for i, id := range expected {
		if results[i].Doc.ID != id {
			t.Errorf("Expected document %d at position %d, got %d", id, i, results[i].Doc.ID)
		}
	}
}

func TestResultsSortStable(t *testing.T) {
	// Equal distances must keep their prior order
	results := Results{
		{Doc: document.New(1, []float32{1}, ""), Distance: 2.0},
		{Doc: document.New(2, []float32{1}, ""), Distance: 1.0},
		{Doc: document.New(3, []float32{1}, ""), Distance: 1.0},
		{Doc: document.New(4, []float32{1}, ""), Distance: 1.0},
	}

	results.Sort()

	expected := []int{2, 3, 4, 1}
	for i, id := range expected {
		if results[i].Doc.ID != id {
			t.Errorf("Expected document %d at position %d, got %d", id, i, results[i].Doc.ID)
		}
	}
}

func TestErrDimensionMismatch(t *testing.T) {
	err := &ErrDimensionMismatch{Expected: 24, Actual: 12}

	expected := "dimension mismatch: expected 24, got 12"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}
