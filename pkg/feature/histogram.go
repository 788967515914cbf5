package feature

import (
	"errors"
	"image"

	"gonum.org/v1/gonum/floats"
)

// channels is the number of color channels sampled per pixel (R, G, B)
const channels = 3

// ErrInvalidBins is returned when the bin count is less than 1
var ErrInvalidBins = errors.New("bins must be greater than 0")

// HistogramConfig holds configuration for the color histogram extractor
type HistogramConfig struct {
	Bins int // Histogram bins per color channel (default: 8)
}

// DefaultHistogramConfig returns the default configuration for the extractor
func DefaultHistogramConfig() HistogramConfig {
	return HistogramConfig{
		Bins: 8,
	}
}

// Histogram extracts a color histogram feature vector from an image: one
// histogram per channel, min-max normalized to [0, 1] independently so that
// vectors stay comparable across image sizes. The output interleaves the
// channels bin by bin, giving a vector of 3 times the configured bin count.
type Histogram struct {
	bins int
}

// NewHistogram creates a histogram extractor. If config is nil,
// DefaultHistogramConfig is used.
func NewHistogram(config *HistogramConfig) (*Histogram, error) {
	cfg := DefaultHistogramConfig()
	if config != nil {
		cfg = *config
	}

	if cfg.Bins < 1 {
		return nil, ErrInvalidBins
	}

	return &Histogram{bins: cfg.Bins}, nil
}

// Name returns the name of the extractor
func (h *Histogram) Name() string {
	return "histogram"
}

// Dimension returns the length of the vectors produced by this extractor
func (h *Histogram) Dimension() int {
	return channels * h.bins
}

// Extract computes the interleaved color histogram of an image. For bin b the
// output holds the normalized red, green and blue counts at positions 3b,
// 3b+1 and 3b+2. A channel whose bins are all equal normalizes to zero.
func (h *Histogram) Extract(img image.Image) ([]float32, error) {
	counts := make([]float64, channels*h.bins)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			counts[0*h.bins+h.bin(r)]++
			counts[1*h.bins+h.bin(g)]++
			counts[2*h.bins+h.bin(b)]++
		}
	}

	features := make([]float32, channels*h.bins)
	for c := 0; c < channels; c++ {
		channel := counts[c*h.bins : (c+1)*h.bins]
		lo, hi := floats.Min(channel), floats.Max(channel)
		if hi == lo {
			continue
		}
		for b := 0; b < h.bins; b++ {
			features[b*channels+c] = float32((channel[b] - lo) / (hi - lo))
		}
	}

	return features, nil
}

// bin maps a 16-bit color sample to its histogram bin.
func (h *Histogram) bin(v uint32) int {
	return int(v>>8) * h.bins / 256
}
