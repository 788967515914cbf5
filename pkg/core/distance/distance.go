package distance

import (
	"errors"
	"math"

	"github.com/viant/vec/search"
)

// MetricType identifies a distance metric by name.
type MetricType string

const (
	// MetricEuclidean is the Euclidean (L2) distance metric
	MetricEuclidean MetricType = "euclidean"

	// MetricCosine is the cosine distance metric (1 - cosine similarity)
	MetricCosine MetricType = "cosine"

	// MetricManhattan is the Manhattan (L1) distance metric
	MetricManhattan MetricType = "manhattan"
)

// ErrUnknownMetric is returned when a metric name does not resolve to an
// implementation.
var ErrUnknownMetric = errors.New("unknown distance metric")

// Func computes the distance between two equal-length vectors. Implementations
// are pure: no validation, no error return. Callers guarantee matching
// dimensions; the index packages check at their own boundaries.
type Func func(a, b []float32) float32

// GetMetric resolves a metric name to its distance function.
func GetMetric(metric MetricType) (Func, error) {
	switch metric {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricCosine:
		return Cosine, nil
	case MetricManhattan:
		return Manhattan, nil
	default:
		return nil, ErrUnknownMetric
	}
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float32) float32 {
	return search.Float32s(a).EuclideanDistance(b)
}

// SquaredEuclidean returns the squared L2 distance between a and b. Cheaper
// than Euclidean when only the relative ordering matters.
func SquaredEuclidean(a, b []float32) float32 {
	var sum float64
	for i := range a {
		diff := float64(a[i] - b[i])
		sum += diff * diff
	}
	return float32(sum)
}

// Dot returns the dot product of a and b.
func Dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// Manhattan returns the Manhattan (L1) distance between a and b.
func Manhattan(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i] - b[i]))
	}
	return float32(sum)
}

// Cosine returns the cosine distance (1 - cosine similarity) between a and b.
// Zero vectors are treated as maximally distant.
func Cosine(a, b []float32) float32 {
	va := search.Float32s(a)
	ma := va.Magnitude()
	mb := search.Float32s(b).Magnitude()
	if ma == 0 || mb == 0 {
		return 1
	}
	return va.CosineDistanceWithMagnitude(b, ma, mb)
}
