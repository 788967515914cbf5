// Package dataset loads a flat directory of images into documents ready for
// indexing: it enumerates the matching files, extracts a feature vector per
// image and assigns sequential numeric IDs in listing order. Extraction runs
// in parallel and an optional cache keyed by file name avoids re-decoding
// images whose features were already computed by an earlier run.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/felipevidias/imgsim/pkg/core/document"
	"github.com/felipevidias/imgsim/pkg/feature"
	"github.com/felipevidias/imgsim/pkg/storage"
)

// ErrNoImages is returned when the dataset directory holds no matching files
var ErrNoImages = errors.New("no images found in dataset directory")

// Config holds configuration for the dataset loader
type Config struct {
	Extensions []string              // Accepted file extensions (default: .jpg, .jpeg, .png)
	Workers    int                   // Parallel extraction limit (default: one per CPU)
	Cache      storage.DocumentStore // Optional feature cache keyed by file name
	Logger     *slog.Logger          // Defaults to slog.Default()
}

// DefaultConfig returns the default configuration for the loader
func DefaultConfig() Config {
	return Config{
		Extensions: []string{".jpg", ".jpeg", ".png"},
		Workers:    runtime.GOMAXPROCS(0),
	}
}

// Loader reads a directory of images and turns them into documents
type Loader struct {
	dir        string
	extensions []string
	workers    int
	extractor  feature.Extractor
	cache      storage.DocumentStore
	logger     *slog.Logger
}

// NewLoader creates a loader for the given directory. If config is nil,
// DefaultConfig is used.
func NewLoader(dir string, extractor feature.Extractor, config *Config) *Loader {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultConfig().Extensions
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Loader{
		dir:        dir,
		extensions: cfg.Extensions,
		workers:    cfg.Workers,
		extractor:  extractor,
		cache:      cfg.Cache,
		logger:     cfg.Logger,
	}
}

// Load enumerates the dataset directory, extracts one feature vector per
// matching image and returns the documents in listing order with IDs assigned
// sequentially from 1. Files that fail to decode are logged and skipped; they
// do not abort the load and do not consume an ID.
func (l *Loader) Load(ctx context.Context) ([]*document.Document, error) {
	if l.extractor == nil {
		return nil, errors.New("dataset loader has no feature extractor")
	}

	names, err := l.listImages()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, l.dir)
	}

	l.logger.Info("extracting features", "dir", l.dir, "images", len(names), "workers", l.workers)

	// Each worker writes only its own slot; failed slots stay nil and are
	// compacted out below.
	extracted := make([][]float32, len(names))
	failed := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			features, err := l.features(name)
			if err != nil {
				l.logger.Warn("skipping image", "file", name, "error", err)
				return nil
			}
			extracted[i] = features
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(names))
	for i, features := range extracted {
		if features == nil {
			failed++
			continue
		}
		docs = append(docs, document.New(len(docs)+1, features, names[i]))
	}

	if failed > 0 {
		l.logger.Warn("dataset loaded with failures", "loaded", len(docs), "failed", failed)
	} else {
		l.logger.Info("dataset loaded", "documents", len(docs))
	}

	return docs, nil
}

// features returns the vector for one image, consulting the cache first. A
// cached vector is reused only when its dimensionality still matches the
// extractor, so changing the bin count invalidates stale entries.
func (l *Loader) features(name string) ([]float32, error) {
	if l.cache != nil {
		if doc, err := l.cache.Get(name); err == nil {
			if doc.Dimensions() == l.extractor.Dimension() {
				return doc.Features, nil
			}
		} else if !errors.Is(err, storage.ErrDocumentNotFound) {
			l.logger.Warn("feature cache read failed", "file", name, "error", err)
		}
	}

	features, err := feature.ExtractFile(l.extractor, filepath.Join(l.dir, name))
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		doc := document.New(0, features, name)
		err := l.cache.Insert(doc)
		if errors.Is(err, storage.ErrDocumentAlreadyExists) {
			// A stale entry (e.g. extracted with a different bin count) is
			// replaced rather than kept alongside the fresh vector.
			err = l.cache.Update(doc)
		}
		if err != nil {
			l.logger.Warn("feature cache write failed", "file", name, "error", err)
		}
	}

	return features, nil
}

// listImages returns the base names of the matching files in the dataset
// directory, in the lexicographic order os.ReadDir guarantees.
func (l *Loader) listImages() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if l.matches(entry.Name()) {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// matches reports whether a file name carries one of the accepted extensions.
func (l *Loader) matches(name string) bool {
	ext := filepath.Ext(name)
	for _, accepted := range l.extensions {
		if strings.EqualFold(ext, accepted) {
			return true
		}
	}
	return false
}

// Category derives the dataset category of an image file name. Images are
// grouped in hundreds by their numeric stem (Wang corpus convention), so
// "150.jpg" belongs to category 1. Non-numeric names yield -1.
func Category(name string) int {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	id, err := strconv.Atoi(stem)
	if err != nil {
		return -1
	}
	return id / 100
}
