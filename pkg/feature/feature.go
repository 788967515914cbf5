package feature

import (
	"fmt"
	"image"
	"os"

	// Register the decoders for the supported image formats
	_ "image/jpeg"
	_ "image/png"
)

// Extractor converts a decoded image into a fixed-length feature vector
type Extractor interface {
	// Extract computes the feature vector for an image
	Extract(img image.Image) ([]float32, error)

	// Dimension returns the length of the vectors produced by this extractor
	Dimension() int

	// Name returns the name of the extractor
	Name() string
}

// ExtractFile decodes the image at path and runs the extractor on it.
func ExtractFile(ex Extractor, path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return ex.Extract(img)
}
