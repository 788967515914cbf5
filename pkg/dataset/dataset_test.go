package dataset

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipevidias/imgsim/pkg/feature"
	"github.com/felipevidias/imgsim/pkg/storage"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{"150.jpg", 1},
		{"50.jpg", 0},
		{"0.png", 0},
		{"999.jpeg", 9},
		{"data/250.jpg", 2}, // Paths reduce to their base name
		{"abc.jpg", -1},
		{"15a.jpg", -1},
		{"", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Category(tt.name), "Category(%q)", tt.name)
	}
}

// writePNG writes a uniform-color image to path.
func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// quietLogger drops all output so expected warnings do not clutter test logs.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(127)}))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "100.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "200.png"), color.RGBA{G: 255, A: 255})
	writePNG(t, filepath.Join(dir, "300.png"), color.RGBA{B: 255, A: 255})

	// Non-image files are filtered out before extraction
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))

	extractor, err := feature.NewHistogram(nil)
	require.NoError(t, err)

	loader := NewLoader(dir, extractor, nil)
	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// IDs are sequential from 1 in listing order; names are base file names
	for i, doc := range docs {
		assert.Equal(t, i+1, doc.ID)
		assert.Equal(t, extractor.Dimension(), doc.Dimensions())
	}
	assert.Equal(t, "100.png", docs[0].Name)
	assert.Equal(t, "200.png", docs[1].Name)
	assert.Equal(t, "300.png", docs[2].Name)
}

func TestLoadSkipsUndecodableFiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "100.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "300.png"), color.RGBA{B: 255, A: 255})

	// Carries an image extension but cannot be decoded
	require.NoError(t, os.WriteFile(filepath.Join(dir, "200.png"), []byte("garbage"), 0o644))

	extractor, err := feature.NewHistogram(nil)
	require.NoError(t, err)

	loader := NewLoader(dir, extractor, &Config{Logger: quietLogger()})
	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// The skipped file does not consume an ID
	assert.Equal(t, 1, docs[0].ID)
	assert.Equal(t, "100.png", docs[0].Name)
	assert.Equal(t, 2, docs[1].ID)
	assert.Equal(t, "300.png", docs[1].Name)
}

func TestLoadEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	extractor, err := feature.NewHistogram(nil)
	require.NoError(t, err)

	loader := NewLoader(dir, extractor, nil)
	_, err = loader.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoImages)

	// A missing directory surfaces the read error instead
	missing := NewLoader(filepath.Join(dir, "missing"), extractor, nil)
	_, err = missing.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoImages)
}

func TestLoadExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "100.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "200.PNG"), color.RGBA{G: 255, A: 255}) // Case-insensitive match
	writePNG(t, filepath.Join(dir, "300.bmp"), color.RGBA{B: 255, A: 255})

	extractor, err := feature.NewHistogram(nil)
	require.NoError(t, err)

	loader := NewLoader(dir, extractor, &Config{Extensions: []string{".png"}})
	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "100.png", docs[0].Name)
	assert.Equal(t, "200.PNG", docs[1].Name)
}

// countingExtractor wraps an extractor and counts Extract calls.
type countingExtractor struct {
	feature.Extractor
	calls atomic.Int64
}

func (c *countingExtractor) Extract(img image.Image) ([]float32, error) {
	c.calls.Add(1)
	return c.Extractor.Extract(img)
}

func TestLoadUsesCache(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "100.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "200.png"), color.RGBA{G: 255, A: 255})

	histogram, err := feature.NewHistogram(nil)
	require.NoError(t, err)
	extractor := &countingExtractor{Extractor: histogram}

	cache := storage.NewMemoryStore()
	loader := NewLoader(dir, extractor, &Config{Cache: cache})

	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(2), extractor.calls.Load())

	count, err := cache.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A second load is served from the cache without touching the extractor
	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, int64(2), extractor.calls.Load())

	for i := range first {
		assert.Equal(t, first[i].Features, second[i].Features)
	}
}

func TestLoadCacheInvalidatedByDimension(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "100.png"), color.RGBA{R: 255, A: 255})

	cache := storage.NewMemoryStore()

	coarse, err := feature.NewHistogram(&feature.HistogramConfig{Bins: 4})
	require.NoError(t, err)
	docs, err := NewLoader(dir, coarse, &Config{Cache: cache}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 12, docs[0].Dimensions())

	// A different bin count must not reuse the stale cached vector
	fine, err := feature.NewHistogram(nil)
	require.NoError(t, err)
	docs, err = NewLoader(dir, fine, &Config{Cache: cache}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 24, docs[0].Dimensions())

	// The stale entry was replaced, not kept
	refreshed, err := cache.Get("100.png")
	require.NoError(t, err)
	assert.Equal(t, 24, refreshed.Dimensions())
}

func TestLoadCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "100.png"), color.RGBA{R: 255, A: 255})

	extractor, err := feature.NewHistogram(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewLoader(dir, extractor, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
